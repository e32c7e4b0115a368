package record_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabg-gob/sabg-sistema/modules/trimestral/domain/record"
)

func TestValidCURP(t *testing.T) {
	valid := []string{
		"GARC800101HDFRRL09",
		"LOPM921231MMCPRA08",
		"AAAA000101HDFXXXA1",
	}
	for _, c := range valid {
		assert.True(t, record.ValidCURP(c), c)
	}

	invalid := []string{
		"",
		"GARC800101HDFRRL0",    // 17 chars
		"GARC800101HDFRRL091",  // 19 chars
		"garc800101hdfrrl09",   // lowercase
		"GAR1800101HDFRRL09",   // digit in name block
		"GARC800101XDFRRL09",   // sexo must be H or M
		"GARC8001A1HDFRRL09",   // letter in date block
	}
	for _, c := range invalid {
		assert.False(t, record.ValidCURP(c), c)
	}
}

func TestFromInput_Normalization(t *testing.T) {
	rec := record.FromInput(record.RowInput{
		Trimestre:           "  2024-t1 ",
		IDRusp:              " ab123 ",
		Nombre:              "  María ",
		CURP:                " garc800101hdfrrl09 ",
		CorreoInstitucional: " Maria.Garcia@SEP.GOB.MX ",
		RamoUR:              " 11-a00 ",
		Dependencia:         " SEP ",
	}, "capturista1")

	require.NotNil(t, rec.Trimestre)
	assert.Equal(t, "2024-T1", *rec.Trimestre)
	require.NotNil(t, rec.IDRusp)
	assert.Equal(t, "AB123", *rec.IDRusp)
	require.NotNil(t, rec.Nombre)
	assert.Equal(t, "María", *rec.Nombre)
	require.NotNil(t, rec.CURP)
	assert.Equal(t, "GARC800101HDFRRL09", *rec.CURP)
	assert.Equal(t, record.EstatusCURPValida, rec.EstatusCURP)
	require.NotNil(t, rec.CorreoInstitucional)
	assert.Equal(t, "maria.garcia@sep.gob.mx", *rec.CorreoInstitucional)
	require.NotNil(t, rec.RamoUR)
	assert.Equal(t, "11-A00", *rec.RamoUR)
	require.NotNil(t, rec.UsuarioRegistro)
	assert.Equal(t, "capturista1", *rec.UsuarioRegistro)
	assert.Nil(t, rec.SegundoApellido)
}

func TestFromInput_InvalidCURPGoesNull(t *testing.T) {
	for _, raw := range []string{"", "   ", "NO-ES-CURP", "GARC800101HDFRRL0"} {
		rec := record.FromInput(record.RowInput{Trimestre: "2024-T1", CURP: raw}, "u")
		assert.Nil(t, rec.CURP, "curp %q", raw)
		assert.Equal(t, record.EstatusCURPPendiente, rec.EstatusCURP)
	}
}

func TestFromInput_KeepsExplicitUsuarioRegistro(t *testing.T) {
	rec := record.FromInput(record.RowInput{UsuarioRegistro: "original"}, "sesion")
	require.NotNil(t, rec.UsuarioRegistro)
	assert.Equal(t, "original", *rec.UsuarioRegistro)
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, record.FromInput(record.RowInput{}, "u").IsEmpty())
	assert.True(t, record.FromInput(record.RowInput{CURP: "no valida"}, "u").IsEmpty())
	assert.False(t, record.FromInput(record.RowInput{Nombre: "x"}, "u").IsEmpty())
}

func TestReport_AddErrorCaps(t *testing.T) {
	var rep record.Report
	for i := 0; i < record.MaxReportErrors+20; i++ {
		rep.AddError(record.RowError{Message: "falló"})
	}
	assert.Equal(t, record.MaxReportErrors+20, rep.ErrorsCount)
	assert.Len(t, rep.Errors, record.MaxReportErrors)
}

func TestFieldsMatchesExportHeader(t *testing.T) {
	rec := record.FromInput(record.RowInput{Trimestre: "2024-T1"}, "u")
	assert.Len(t, rec.Fields(), len(record.ExportHeader()))
}
