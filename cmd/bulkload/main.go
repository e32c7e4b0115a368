package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sabg-gob/sabg-sistema/pkg/ingest"
	"github.com/sabg-gob/sabg-sistema/pkg/logging"
)

var (
	filePath    string
	endpoint    string
	token       string
	cookieName  string
	batchSize   int
	concurrency int
	maxRetries  int
	backoffMs   int
	statePath   string
	noResume    bool
	reset       bool
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "bulkload",
	Short: "Carga masiva de registros trimestrales desde CSV o XLSX",
	Long: `Lee un archivo de captura (CSV o XLSX), localiza el renglón de
encabezados, normaliza las columnas conocidas y envía las filas al endpoint
de carga masiva en lotes con reintentos. El avance se guarda por archivo,
de modo que una corrida interrumpida continúa donde quedó.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&filePath, "file", "f", "", "archivo CSV o XLSX a cargar")
	rootCmd.Flags().StringVarP(&endpoint, "endpoint", "e", "http://localhost:3200/api/trimestral/bulk", "URL del endpoint de carga masiva")
	rootCmd.Flags().StringVarP(&token, "token", "t", "", "token de sesión (cookie)")
	rootCmd.Flags().StringVar(&cookieName, "cookie-name", "session_token", "nombre de la cookie de sesión")
	rootCmd.Flags().IntVar(&batchSize, "batch-size", ingest.DefaultBatchSize, "filas por lote")
	rootCmd.Flags().IntVar(&concurrency, "concurrency", ingest.DefaultConcurrency, "lotes en vuelo")
	rootCmd.Flags().IntVar(&maxRetries, "max-retries", ingest.DefaultMaxAttempts, "intentos por lote")
	rootCmd.Flags().IntVar(&backoffMs, "backoff-ms", int(ingest.DefaultBackoffStep/time.Millisecond), "espera base entre reintentos, en ms")
	rootCmd.Flags().StringVar(&statePath, "state", defaultStatePath(), "archivo de estado para reanudar cargas")
	rootCmd.Flags().BoolVar(&noResume, "no-resume", false, "ignorar el estado y reenviar todo")
	rootCmd.Flags().BoolVar(&reset, "reset", false, "olvidar el avance guardado de este archivo")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "bitácora detallada")
	_ = rootCmd.MarkFlagRequired("file")
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bulkload-state.json"
	}
	return home + "/.bulkload-state.json"
}

func run(cmd *cobra.Command, _ []string) error {
	level := logrus.WarnLevel
	if verbose {
		level = logrus.DebugLevel
	}
	logger := logrus.NewEntry(logging.ConsoleLogger(level))

	rows, err := ingest.ReadSourceFile(filePath)
	if err != nil {
		return err
	}

	headerIdx, cm, ok := ingest.DetectHeader(rows)
	if !ok {
		return fmt.Errorf("no se encontró el renglón de encabezados en %s", filePath)
	}
	payload := ingest.BuildRows(rows, headerIdx, cm)
	if len(payload) == 0 {
		return fmt.Errorf("%s no contiene filas con datos", filePath)
	}
	fmt.Printf("Archivo: %s\nEncabezados en renglón %d, %d columnas reconocidas, %d filas con datos\n",
		filePath, headerIdx+1, len(cm), len(payload))

	var cursor ingest.CursorStore = ingest.NopCursorStore{}
	var store *ingest.FileCursorStore
	cursorKey := ""
	if !noResume {
		sig, err := ingest.FileSignature(filePath)
		if err != nil {
			return err
		}
		store = ingest.NewFileCursorStore(statePath)
		if reset {
			if err := store.Reset(sig); err != nil {
				return err
			}
		}
		cursor, cursorKey = store, sig
	}

	uploader := &ingest.Uploader{
		Endpoint:    endpoint,
		Token:       token,
		CookieName:  cookieName,
		BatchSize:   batchSize,
		Concurrency: concurrency,
		Retry: ingest.RetryPolicy{
			MaxAttempts: maxRetries,
			Backoff: func(attempt int) time.Duration {
				return time.Duration(attempt*backoffMs) * time.Millisecond
			},
		},
		Cursor:    cursor,
		CursorKey: cursorKey,
		Logger:    logger,
		Progress: func(done, total int) {
			fmt.Printf("\rLote %d/%d", done, total)
			if done == total {
				fmt.Println()
			}
		},
	}

	summary, err := uploader.Upload(cmd.Context(), payload)
	if err != nil {
		return err
	}

	fmt.Println()
	summary.Render(os.Stdout)
	if !summary.OK() {
		return fmt.Errorf("carga incompleta: %d errores, %d lotes sin aplicar", summary.ErrorsCount, len(summary.FailedBatches))
	}
	if store != nil {
		if err := store.Reset(cursorKey); err != nil {
			logger.WithError(err).Warn("no se pudo limpiar el estado de reanudación")
		}
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
