package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"

	"pyfer/pkg/pyfer"
	"pyfer/pkg/utils"
)

// Server speaks LSP over stdio. Each document gets a fresh analysis state on
// open and on every change; hover, definition, and completion read the last
// completed state.
type Server struct {
	logger *log.Logger
	cfg    pyfer.Config
	docs   map[lsp.DocumentURI]string
	states map[lsp.DocumentURI]*pyfer.State
}

func NewServer(cfg pyfer.Config) *Server {
	return &Server{
		logger: log.New(os.Stderr, "[pyfer-lsp] ", log.LstdFlags),
		cfg:    cfg,
		docs:   map[lsp.DocumentURI]string{},
		states: map[lsp.DocumentURI]*pyfer.State{},
	}
}

// Run serves until the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Println("listening on stdio")
	stream := jsonrpc2.NewBufferedStream(stdrwc{}, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.AsyncHandler(jsonrpc2.HandlerWithError(s.handle)))
	<-conn.DisconnectNotify()
	s.logger.Println("connection closed")
	return nil
}

func (s *Server) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	switch req.Method {
	case "initialize":
		return lsp.InitializeResult{
			Capabilities: lsp.ServerCapabilities{
				TextDocumentSync: &lsp.TextDocumentSyncOptionsOrKind{
					Kind: utils.Ptr(lsp.TDSKFull),
				},
				HoverProvider:      true,
				DefinitionProvider: true,
				CompletionProvider: &lsp.CompletionOptions{},
			},
		}, nil
	case "initialized", "shutdown", "exit", "textDocument/didSave", "textDocument/didClose":
		return nil, nil
	case "textDocument/didOpen":
		var params lsp.DidOpenTextDocumentParams
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			return nil, err
		}
		s.analyze(ctx, conn, params.TextDocument.URI, params.TextDocument.Text)
		return nil, nil
	case "textDocument/didChange":
		var params lsp.DidChangeTextDocumentParams
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			return nil, err
		}
		if n := len(params.ContentChanges); n > 0 {
			s.analyze(ctx, conn, params.TextDocument.URI, params.ContentChanges[n-1].Text)
		}
		return nil, nil
	case "textDocument/hover":
		return s.hover(req)
	case "textDocument/definition":
		return s.definition(req)
	case "textDocument/completion":
		return s.completion(req)
	default:
		s.logger.Printf("unhandled method %q", req.Method)
		return nil, nil
	}
}

func (s *Server) analyze(ctx context.Context, conn *jsonrpc2.Conn, uri lsp.DocumentURI, src string) {
	s.docs[uri] = src
	st := pyfer.NewState(s.cfg, pyfer.WithReporter(pyfer.NopReporter{}))
	errs := st.Check(ctx, uriFilename(uri), src)
	s.states[uri] = st

	diags := make([]lsp.Diagnostic, 0, len(errs))
	for _, e := range errs {
		line := max(e.Pos.Line-1, 0)
		col := max(e.Pos.Column-1, 0)
		diags = append(diags, lsp.Diagnostic{
			Range: lsp.Range{
				Start: lsp.Position{Line: line, Character: col},
				End:   lsp.Position{Line: line, Character: col + 1},
			},
			Severity: lsp.Error,
			Message:  e.Err.Error(),
		})
	}
	params := lsp.PublishDiagnosticsParams{URI: uri, Diagnostics: diags}
	if err := conn.Notify(ctx, "textDocument/publishDiagnostics", params); err != nil {
		s.logger.Printf("publish diagnostics: %v", err)
	}
}

func (s *Server) positionParams(req *jsonrpc2.Request) (*pyfer.State, lsp.TextDocumentPositionParams, error) {
	var params lsp.TextDocumentPositionParams
	if err := json.Unmarshal(*req.Params, &params); err != nil {
		return nil, params, err
	}
	return s.states[params.TextDocument.URI], params, nil
}

func (s *Server) hover(req *jsonrpc2.Request) (any, error) {
	st, params, err := s.positionParams(req)
	if err != nil || st == nil {
		return nil, err
	}
	info, ok := st.InfoAt(params.Position.Line+1, params.Position.Character+1)
	if !ok {
		return nil, nil
	}
	return lsp.Hover{
		Contents: []lsp.MarkedString{
			lsp.RawMarkedString(fmt.Sprintf("%s: %s", info.Name, info.Types)),
		},
	}, nil
}

func (s *Server) definition(req *jsonrpc2.Request) (any, error) {
	st, params, err := s.positionParams(req)
	if err != nil || st == nil {
		return nil, err
	}
	info, ok := st.InfoAt(params.Position.Line+1, params.Position.Character+1)
	if !ok || !info.Definition.IsValid() {
		return nil, nil
	}
	pos := st.Position(info.Definition)
	loc := lsp.Location{
		URI: params.TextDocument.URI,
		Range: lsp.Range{
			Start: lsp.Position{Line: pos.Line - 1, Character: pos.Column - 1},
			End:   lsp.Position{Line: pos.Line - 1, Character: pos.Column - 1 + len(info.Name)},
		},
	}
	return []lsp.Location{loc}, nil
}

func (s *Server) completion(req *jsonrpc2.Request) (any, error) {
	st, _, err := s.positionParams(req)
	if err != nil || st == nil {
		return nil, err
	}
	names := st.Completions()
	items := make([]lsp.CompletionItem, 0, len(names))
	for _, name := range names {
		items = append(items, lsp.CompletionItem{Label: name})
	}
	return lsp.CompletionList{IsIncomplete: false, Items: items}, nil
}

func uriFilename(uri lsp.DocumentURI) string {
	return strings.TrimPrefix(string(uri), "file://")
}

// stdrwc bridges stdin/stdout into one ReadWriteCloser for jsonrpc2.
type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdrwc) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

func (stdrwc) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}
