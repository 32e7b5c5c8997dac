// Command lesson-files uploads lesson attachments to object storage and
// prints presigned download links for them.
package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/Omarrawas/Atmetny1/internal/config"
	"github.com/Omarrawas/Atmetny1/internal/storage"
	"github.com/Omarrawas/Atmetny1/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	store     *storage.MinIOStorage
	uploadKey string

	rootCmd = &cobra.Command{
		Use:               "lesson-files",
		Short:             "Manage lesson attachments in MinIO",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.Init(os.Getenv("LOG_LEVEL"))
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			store, err = storage.NewMinIOStorage(cmd.Context(), cfg.MinIO)
			return err
		},
		SilenceUsage: true,
	}
	uploadCmd = &cobra.Command{
		Use:   "upload [file]",
		Short: "Upload a file; store the printed key in the lesson's files[].key",
		Args:  cobra.ExactArgs(1),
		RunE:  runUpload,
	}
	signCmd = &cobra.Command{
		Use:   "sign [key]",
		Short: "Print a presigned download URL for a stored file",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error {
			u, err := store.SignURL(cmd.Context(), args[0], filepath.Base(args[0]))
			if err != nil {
				return err
			}
			fmt.Println(u)
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(uploadCmd, signCmd)
	uploadCmd.Flags().StringVar(&uploadKey, "key", "", "object key, e.g. math/limits/sheet.pdf (defaults to the file name)")
}

func runUpload(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return err
	}
	key := uploadKey
	if key == "" {
		key = filepath.Base(args[0])
	}
	ct := mime.TypeByExtension(filepath.Ext(args[0]))
	if ct == "" {
		ct = "application/octet-stream"
	}
	if err := store.UploadFile(cmd.Context(), key, f, st.Size(), ct); err != nil {
		return fmt.Errorf("upload %s: %w", args[0], err)
	}
	logger.Infof("uploaded %s (%d bytes) as %s", args[0], st.Size(), key)
	fmt.Println(key)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
