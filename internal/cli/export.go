package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"clientcore/internal/blob"
	"clientcore/pkg/domain"
)

func newExportCmd(g *globalOptions) *cobra.Command {
	var (
		outPath string
		blobKey string
		presign time.Duration
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the stored snapshot as indented JSON",
		Long: "export reads the current snapshot and writes it to stdout, to a file with --out, " +
			"or to the configured blob store with --blob-key. --presign prints a time-limited download URL for the uploaded object.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if presign > 0 && blobKey == "" {
				return errors.New("--presign requires --blob-key")
			}
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			clients, err := a.service.ListClients(cmd.Context())
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(domain.Collection{Clients: clients}, "", "  ")
			if err != nil {
				return err
			}
			data = append(data, '\n')

			switch {
			case blobKey != "":
				store, err := blob.Open(cmd.Context(), cfg.BlobOptions())
				if err != nil {
					return err
				}
				info, err := store.Put(cmd.Context(), blobKey, bytes.NewReader(data), blob.PutOptions{
					ContentType: "application/json",
					Metadata:    map[string]string{"policy": string(a.service.Policy()), "clients": fmt.Sprint(len(clients))},
				})
				if err != nil {
					return fmt.Errorf("upload %s: %w", blobKey, err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %d clients to %s (%d bytes)\n", len(clients), info.Key, info.Size)
				if presign > 0 {
					url, err := store.PresignURL(cmd.Context(), blobKey, blob.SignedURLOptions{Method: "GET", Expiry: presign})
					if err != nil {
						return fmt.Errorf("presign %s: %w", blobKey, err)
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), url)
				}
				return nil
			case outPath != "":
				if err := os.WriteFile(outPath, data, 0o600); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %d clients to %s\n", len(clients), outPath)
				return nil
			default:
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "Write the snapshot to this file instead of stdout")
	cmd.Flags().StringVar(&blobKey, "blob-key", "", "Upload the snapshot to the blob store under this key")
	cmd.Flags().DurationVar(&presign, "presign", 0, "Print a presigned download URL valid for this long (requires --blob-key)")
	return cmd
}
