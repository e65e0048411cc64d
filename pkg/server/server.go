// Package server implements MessagePack IPC for suggestion, learn, accept,
// validate, and dict-info requests.
package server

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"reflect"
	"sync"
	"time"

	"github.com/arvindr/wordpilot/internal/logger"
	"github.com/arvindr/wordpilot/internal/utils"
	"github.com/arvindr/wordpilot/pkg/config"
	"github.com/arvindr/wordpilot/pkg/ngram"
	"github.com/arvindr/wordpilot/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Server handles suggest/learn/accept/validate/dict_info requests over
// msgpack on stdin/stdout.
type Server struct {
	service    suggest.SuggestionService
	config     *config.Config
	configPath string
	log        *log.Logger

	decoder      *msgpack.Decoder
	writeMutex   sync.Mutex
	requestCount int64
}

// NewServer creates a server bound to a suggestion service and config.
func NewServer(service suggest.SuggestionService, cfg *config.Config, configPath string) *Server {
	s := &Server{
		service:    service,
		config:     cfg,
		configPath: configPath,
		log:        logger.Default("server"),
		decoder:    msgpack.NewDecoder(os.Stdin),
	}
	s.log.Debugf("Creating server with service type: %T", service)
	return s
}

// reloadConfig reloads configuration from the TOML file on disk.
func (s *Server) reloadConfig() error {
	newConfig, err := config.LoadConfig(s.configPath)
	if err != nil {
		s.log.Warnf("Failed to reload config, keeping current: %v", err)
		return err
	}
	s.config = newConfig
	s.log.Debugf("Config reloaded from: %s", s.configPath)
	return nil
}

// Start begins listening for requests until EOF.
func (s *Server) Start() error {
	s.log.Debug("Starting MessagePack suggestion server")
	for {
		if err := s.processRequest(); err != nil {
			if err == io.EOF {
				s.log.Debug("Client disconnected")
				return nil
			}
			continue
		}
	}
}

// processRequest decodes one raw request and dispatches it by shape.
func (s *Server) processRequest() error {
	s.requestCount++
	if s.requestCount%100 == 0 {
		s.reloadConfig()
	}

	var raw map[string]interface{}
	s.log.Debug("Waiting for request...")
	if err := s.decoder.Decode(&raw); err != nil {
		s.log.Debugf("Decode error: %v", err)
		return err
	}

	id, _ := raw["id"].(string)

	if action, ok := raw["action"].(string); ok {
		switch action {
		case "learn":
			return s.handleLearn(id, raw)
		case "accept":
			return s.handleAccept(id, raw)
		case "validate":
			return s.handleValidate(id, raw)
		case "dict_info":
			return s.handleDictInfo(id)
		default:
			return s.sendError(id, fmt.Sprintf("unknown action: %s", action), 400)
		}
	}

	return s.handleSuggest(id, raw)
}

func (s *Server) handleSuggest(id string, raw map[string]interface{}) error {
	prefix, _ := raw["p"].(string)
	limit := 0
	switch l := raw["l"].(type) {
	case int, int8, int16, int32, int64:
		limit = int(reflect.ValueOf(l).Int())
	case uint8, uint16, uint32, uint64:
		limit = int(reflect.ValueOf(l).Uint())
	case float64:
		limit = int(l)
	}

	s.log.Debugf("Received suggest request: prefix='%s', limit=%d", prefix, limit)

	if prefix == "" {
		return s.sendError(id, "empty prefix", 400)
	}
	if len(prefix) < s.config.Server.MinPrefix {
		return s.sendError(id, fmt.Sprintf("prefix too short (min: %d)", s.config.Server.MinPrefix), 400)
	}
	if len(prefix) > s.config.Server.MaxPrefix {
		return s.sendError(id, fmt.Sprintf("prefix too long (max: %d)", s.config.Server.MaxPrefix), 400)
	}

	if s.config.Server.EnableFilter && !utils.IsValidInput(prefix) {
		return s.sendResponse(&SuggestResponse{
			ID:          id,
			Suggestions: []SuggestionWire{},
			Count:       0,
			Source:      "none",
		})
	}

	if limit <= 0 {
		limit = s.config.Server.MaxLimit / 2
	}
	if limit > s.config.Server.MaxLimit {
		limit = s.config.Server.MaxLimit
	}

	start := time.Now()
	result := s.service.Suggest(prefix, limit)
	elapsed := time.Since(start)

	wire := make([]SuggestionWire, len(result.Suggestions))
	for i, sug := range result.Suggestions {
		wire[i] = SuggestionWire{Word: sug.Word, Weight: sug.Weight}
	}

	return s.sendResponse(&SuggestResponse{
		ID:          id,
		Suggestions: wire,
		Count:       len(wire),
		Source:      result.Source.String(),
		TimeTaken:   elapsed.Microseconds(),
	})
}

func (s *Server) handleLearn(id string, raw map[string]interface{}) error {
	text, _ := raw["text"].(string)
	if err := s.service.Learn(text); err != nil {
		return s.sendResponse(&LearnResponse{ID: id, Status: "error", Error: err.Error()})
	}
	return s.sendResponse(&LearnResponse{ID: id, Status: "ok"})
}

func (s *Server) handleAccept(id string, raw map[string]interface{}) error {
	word, _ := raw["word"].(string)
	s.service.Accept(word)
	return s.sendResponse(&AcceptResponse{ID: id, Status: "ok"})
}

func (s *Server) handleValidate(id string, raw map[string]interface{}) error {
	kind, _ := raw["kind"].(string)
	path, _ := raw["path"].(string)
	if err := validateArtifact(kind, path); err != nil {
		return s.sendResponse(&ValidateResponse{ID: id, Status: "error", Error: err.Error()})
	}
	return s.sendResponse(&ValidateResponse{ID: id, Status: "ok"})
}

func (s *Server) handleDictInfo(id string) error {
	stats := s.service.Stats()
	return s.sendResponse(&DictInfoResponse{
		ID:         id,
		Status:     "ok",
		VocabSize:  stats["vocab_size"],
		UserWords:  stats["user_words"],
		EdgesCount: stats["edges_count"],
		NumPairs:   stats["num_pairs"],
	})
}

// validateArtifact opens an n-gram artifact by kind and runs Validate,
// without retaining it: used for a one-shot check, not for serving.
func validateArtifact(kind, path string) error {
	switch kind {
	case "bigram":
		f, err := ngram.OpenBigram(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return f.Validate()
	case "trigram":
		f, err := ngram.OpenTrigram(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return f.Validate()
	default:
		return fmt.Errorf("unknown artifact kind: %s", kind)
	}
}

// sendResponse encodes and sends a MessagePack response to stdout atomically.
func (s *Server) sendResponse(response any) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()

	var buf bytes.Buffer
	encoder := msgpack.NewEncoder(&buf)
	if err := encoder.Encode(response); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	if _, err := os.Stdout.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	os.Stdout.Sync()
	return nil
}

// sendError sends a MessagePack error response.
func (s *Server) sendError(id string, message string, code int) error {
	return s.sendResponse(&ErrorResponse{ID: id, Error: message, Code: code})
}
