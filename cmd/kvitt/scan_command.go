package main

import (
	"fmt"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"kvitt/internal/services/ocr"
	"kvitt/internal/services/vault"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan FILE",
		Short: "Extract receipt details from a file without starting a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			path := args[0]
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			scanner, err := ocr.NewScanner(cfg)
			if err != nil {
				return err
			}

			ref := ocr.FileRef{
				LocalPath: path,
				FileName:  filepath.Base(path),
				MimeType:  mimeTypeFor(path),
			}

			// The remote backend reads the file through the vault, so a
			// preview still uploads; the gemini backend reads it locally.
			if cfg.OCR.Backend == "remote" {
				uploader := vault.NewService(cfg)
				content, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("open %s: %w", path, err)
				}
				fileID, uploadErr := uploader.Upload(runCtx, ref.FileName, ref.MimeType, content)
				content.Close()
				if uploadErr != nil {
					return uploadErr
				}
				ref.FileID = fileID
				ref.FileURL = uploader.FileURL(fileID)
			}

			result, err := scanner.Extract(runCtx, ref)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rows := [][]string{
				{"Description", result.Description},
				{"Vendor", result.Vendor},
				{"Date", result.Date},
				{"Amount", result.Amount.String() + " " + result.Currency},
				{"Exchange rate", result.ExchangeRate.String()},
				{"Confidence", fmt.Sprintf("%.2f", result.Confidence)},
			}
			if result.HasSettlement {
				rows = append(rows, []string{"Settlement amount", result.SettlementAmount.String() + " " + cfg.Currency.Settlement})
			}
			fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
			return nil
		},
	}
	return cmd
}

func mimeTypeFor(path string) string {
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" {
		return "application/octet-stream"
	}
	return mimeType
}
