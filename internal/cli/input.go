// Package cli handles command line input and suggestions for interactive use
// and manual testing of the suggestion pipeline.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/arvindr/wordpilot/internal/utils"
	"github.com/arvindr/wordpilot/pkg/suggest"
	"github.com/charmbracelet/log"
)

// InputHandler processes user input from stdin, providing suggestions. It
// accepts flags to control minimum/maximum prefix length, suggestion limit,
// and input filtering.
type InputHandler struct {
	service         suggest.SuggestionService
	minPrefixLength int
	maxPrefixLength int
	suggestLimit    int
	requestCount    int
	noFilter        bool
}

// NewInputHandler handles initialization of the InputHandler with basic parameters
func NewInputHandler(service suggest.SuggestionService, minLength, maxLength, limit int, noFilter bool) *InputHandler {
	return &InputHandler{
		service:         service,
		minPrefixLength: minLength,
		maxPrefixLength: maxLength,
		suggestLimit:    limit,
		noFilter:        noFilter,
	}
}

// Start begins the interface loop. It continuously prompts for input, reads
// a line from stdin, and dispatches it to handleInput. A line prefixed with
// "learn:" is fed to the adaptive model instead of producing suggestions.
// The loop terminates if an error occurs while reading from stdin.
func (h *InputHandler) Start() error {
	log.Print("wordpilot CLI")
	reader := bufio.NewReader(os.Stdin)
	log.Print("type a prefix and press Enter for suggestions, or 'learn: <text>' to train (Ctrl+C to exit):")

	for {
		log.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if text, ok := strings.CutPrefix(line, "learn:"); ok {
			h.handleLearn(strings.TrimSpace(text))
			continue
		}
		h.handleInput(line)
	}
}

// handleLearn feeds text through the adaptive model and reports success.
func (h *InputHandler) handleLearn(text string) {
	if text == "" {
		log.Warn("Nothing to learn from an empty line")
		return
	}
	if err := h.service.Learn(text); err != nil {
		log.Errorf("Learn failed: %v", err)
		return
	}
	log.Printf("Learned from: '%s'", text)
}

// handleInput processes a single prefix to generate suggestions.
// It validates the prefix's length and content, then asks the service for
// suggestions. Results are formatted and printed to the log.
func (h *InputHandler) handleInput(prefix string) {
	h.requestCount++

	if len(prefix) < h.minPrefixLength {
		log.Errorf("Prefix too short: %s", prefix)
		return
	}

	if len(prefix) > h.maxPrefixLength {
		log.Errorf("Prefix too long: %s", prefix)
		return
	}

	// input filtering by default (unless --no-filter flag is used)
	if !h.noFilter {
		if !utils.IsValidInput(prefix) {
			log.Info("No results found for prefix: '%s'", prefix)
			return
		}
	} else {
		log.Debug("Input filtering disabled - indexed all entries")
	}

	start := time.Now()
	log.Debug("Processing request for", "prefix", prefix)

	result := h.service.Suggest(prefix, h.suggestLimit)

	elapsed := time.Since(start)
	log.Debugf("Took [ %v ] for prefix '%s' (source: %s)", elapsed, prefix, result.Source)

	if len(result.Suggestions) == 0 {
		log.Warnf("No suggestions found for prefix: '%s'", prefix)
		return
	}

	log.Printf("Found %d suggestions for prefix '%s' (%s):", len(result.Suggestions), prefix, result.Source)
	for i, s := range result.Suggestions {
		fmtWeight := utils.FormatWithCommas(int(s.Weight))
		clWord := fmt.Sprintf("\033[38;5;75m%s\033[0m", s.Word)
		log.Printf("%2d. %-40s (weight: %6s)", i+1, clWord, fmtWeight)
	}
}
