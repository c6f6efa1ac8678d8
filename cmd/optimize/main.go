// Command optimize runs one resume optimization from the command line and
// writes optimized_resume.docx and optimized_resume.txt.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Rewrite a resume to match a job description",
	Long:  "optimize extracts text from a PDF, DOCX or plain text resume, asks the configured model to align it with a job description, and writes the result as DOCX and plain text.",
	RunE:  runOptimize,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
