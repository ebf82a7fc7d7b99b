// package formatter provides functions to export stored accounts to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/steamlink/internal/models"
	"github.com/desertthunder/steamlink/internal/shared"
)

// Format names an export format accepted by [Export].
type Format string

const (
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "text"
)

// ParseFormat accepts a format name or its common alias (md, txt).
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "text", "txt", "":
		return Text, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, name)
}

// Extension returns the file extension used by [WriteExport].
func (f Format) Extension() string {
	switch f {
	case CSV:
		return ".csv"
	case Markdown:
		return ".md"
	default:
		return ".txt"
	}
}

// Export renders accounts in format f.
func Export(accounts []*models.Account, f Format) ([]byte, error) {
	switch f {
	case CSV:
		return ExportToCSV(accounts)
	case Markdown:
		return ExportToMarkdown(accounts)
	case Text:
		return ExportToText(accounts)
	}
	return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, f)
}

// ExportToCSV converts accounts to CSV format with columns: SteamID, PersonaName, Verified, LastLogin, Avatar
func ExportToCSV(accounts []*models.Account) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"SteamID", "PersonaName", "Verified", "LastLogin", "Avatar"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, a := range accounts {
		record := []string{
			a.SteamID,
			a.PersonaName,
			strconv.FormatBool(a.Verified),
			a.LastLoginAt.UTC().Format(time.RFC3339),
			a.AvatarFull,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts accounts to a Markdown table with avatar thumbnails
func ExportToMarkdown(accounts []*models.Account) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Steam Accounts\n\n")
	buf.WriteString(fmt.Sprintf("**Accounts**: %d\n\n", len(accounts)))

	if len(accounts) == 0 {
		return buf.Bytes(), nil
	}

	buf.WriteString("| | Name | Steam ID | Verified | Last login |\n")
	buf.WriteString("|---|---|---|---|---|\n")
	for _, a := range accounts {
		avatar := ""
		if a.Avatar != "" {
			avatar = fmt.Sprintf("![avatar](%s)", a.Avatar)
		}
		verified := "no"
		if a.Verified {
			verified = "yes"
		}
		buf.WriteString(fmt.Sprintf("| %s | %s | [%s](https://steamcommunity.com/profiles/%s) | %s | %s |\n",
			avatar, markdownEscape(a.DisplayName()), a.SteamID, a.SteamID, verified, a.LastLoginAt.UTC().Format("2006-01-02 15:04")))
	}

	return buf.Bytes(), nil
}

func markdownEscape(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}

// ExportToText converts accounts to plain text format
func ExportToText(accounts []*models.Account) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Accounts: %d\n\n", len(accounts)))
	for i, a := range accounts {
		mark := ""
		if a.Verified {
			mark = " (verified)"
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s\n", i+1, a.DisplayName(), a.SteamID, mark))
	}

	return buf.Bytes(), nil
}

// WriteExport renders accounts in format f to path.
//
// Defaults to accounts{ext} in the working directory.
func WriteExport(accounts []*models.Account, f Format, path string) (string, error) {
	if path == "" {
		path = "accounts" + f.Extension()
	}

	data, err := Export(accounts, f)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}

	return path, nil
}
