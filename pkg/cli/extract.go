package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"foolcalls/pkg/callid"
	"foolcalls/pkg/domain"
	"foolcalls/pkg/logger"
	"foolcalls/pkg/store"
	"foolcalls/pkg/transcript"
)

func newExtractCommand(opts *rootOptions) *cobra.Command {
	var compact bool

	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract one local .html or .gz transcript page and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.close()

			call, err := ExtractFile(args[0], a.cfg.Crawl.RootURL+a.cfg.Crawl.TranscriptsPath, a.log)
			if err != nil {
				return err
			}
			return WriteJSON(cmd.OutOrStdout(), call, !compact)
		},
	}
	cmd.Flags().BoolVar(&compact, "compact", false, "print the record on one line")
	return cmd
}

// ExtractFile runs the extraction engine over one saved page. Gzipped content is
// detected from its header. When the file is named after a CID ("<cid>.html",
// "cid=<cid>.gz") the record carries that CID and the call URL below transcriptsRoot.
func ExtractFile(path, transcriptsRoot string, log logger.Logger) (*domain.StructuredCall, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if store.IsGzip(data) {
		if data, err = store.Gunzip(data); err != nil {
			return nil, err
		}
	}

	ct, err := transcript.NewScraper(log).Scrape(data)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", path, err)
	}

	call := &domain.StructuredCall{CallTranscript: *ct}
	if cid := cidFromFileName(path); cid != "" {
		call.CID = cid
		call.CallURL, _ = callid.ToURL(transcriptsRoot, cid)
	}
	return call, nil
}

func cidFromFileName(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, ".gz")
	name = strings.TrimSuffix(name, ".html")
	name = strings.TrimSuffix(name, callid.Extension)
	name = strings.TrimPrefix(name, "cid=")
	if _, err := callid.ToURLPath(name); err != nil {
		return ""
	}
	return name
}

// WriteJSON encodes v to w without HTML escaping.
func WriteJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
