// ABOUTME: Upload command sending a PDF for the document mode
// ABOUTME: Only .pdf files are accepted; the backend indexes them for pdf questions
package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/chatdesk/internal/backend"
)

// NewUploadCmd creates the upload command
func NewUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.pdf>",
		Short: "Upload an SOP document (admin)",
		Long: `Upload a PDF so questions in pdf mode can be answered from it.

Uploading is meant for admin accounts; the backend has the final say.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if user, ok, err := a.savedUser(); err == nil && ok && !user.IsAdmin() {
				return fmt.Errorf("%s is not an admin; uploading requires an admin login", user.Username)
			}

			name, err := a.client.UploadDocument(cmd.Context(), args[0])
			if errors.Is(err, backend.ErrNotPDF) {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if err != nil {
				return err
			}
			if name == "" {
				name = args[0]
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s\n", name)
			return nil
		},
	}
}
