package lspserver

import (
	"context"
	"encoding/json"

	"go.lsp.dev/protocol"

	"github.com/graelo/gcode-language-server/internal/document"
)

func (s *Server) handleInitialize(raw json.RawMessage) (interface{}, error) {
	var params protocol.InitializeParams
	if err := unmarshalParams(raw, &params); err != nil {
		return nil, err
	}

	if s.OnInitialize != nil {
		s.OnInitialize(string(params.RootURI))
	}

	full := protocol.TextDocumentSyncKindFull
	return &protocol.InitializeResult{
		ServerInfo: &protocol.ServerInfo{
			Name:    "gcode-ls",
			Version: "0.1.0",
		},
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: full,
			HoverProvider:    true,
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{" ", "\t"},
			},
			DocumentSymbolProvider: true,
		},
	}, nil
}

func (s *Server) handleDidOpen(ctx context.Context, raw json.RawMessage) error {
	var params protocol.DidOpenTextDocumentParams
	if err := unmarshalParams(raw, &params); err != nil {
		return err
	}
	uri := string(params.TextDocument.URI)
	diags := s.docs.Open(uri, params.TextDocument.Text)
	s.publishDiagnostics(ctx, uri, toProtocolDiagnostics(params.TextDocument.Text, diags.Diagnostic))
	return nil
}

func (s *Server) handleDidChange(ctx context.Context, raw json.RawMessage) error {
	var params protocol.DidChangeTextDocumentParams
	if err := unmarshalParams(raw, &params); err != nil {
		return err
	}
	if len(params.ContentChanges) == 0 {
		return nil
	}
	// §4.7/§12: full document sync only, so the last content change
	// (per the LSP spec's ordering) carries the whole new text.
	newText := params.ContentChanges[len(params.ContentChanges)-1].Text

	uri := string(params.TextDocument.URI)
	diags, ok := s.docs.Change(uri, newText)
	if !ok {
		s.logger.WithField("uri", uri).Warn("didChange for an unopened document")
		return nil
	}
	s.publishDiagnostics(ctx, uri, toProtocolDiagnostics(newText, diags.Diagnostic))
	return nil
}

func (s *Server) handleDidClose(raw json.RawMessage) error {
	var params protocol.DidCloseTextDocumentParams
	if err := unmarshalParams(raw, &params); err != nil {
		return err
	}
	s.docs.Close(string(params.TextDocument.URI))
	return nil
}

func (s *Server) handleHover(raw json.RawMessage) (interface{}, error) {
	var params protocol.HoverParams
	if err := unmarshalParams(raw, &params); err != nil {
		return nil, err
	}
	uri := string(params.TextDocument.URI)

	text, ok := s.docs.Text(uri)
	if !ok {
		return nil, nil
	}
	offset := byteOffsetForPosition(text, params.Position)

	hover, ok := s.docs.Hover(uri, offset)
	if !ok {
		return nil, nil
	}

	r := rangeForSpan(text, hover.Span.Start.Byte, hover.Span.End.Byte)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: hover.Contents,
		},
		Range: &r,
	}, nil
}

func (s *Server) handleCompletion(raw json.RawMessage) (interface{}, error) {
	var params protocol.CompletionParams
	if err := unmarshalParams(raw, &params); err != nil {
		return nil, err
	}
	uri := string(params.TextDocument.URI)

	text, ok := s.docs.Text(uri)
	if !ok {
		return &protocol.CompletionList{}, nil
	}
	offset := byteOffsetForPosition(text, params.Position)

	items, ok := s.docs.Completion(uri, offset)
	if !ok {
		return &protocol.CompletionList{}, nil
	}
	return &protocol.CompletionList{Items: toProtocolCompletionItems(items)}, nil
}

func toProtocolCompletionItems(items []document.CompletionItem) []protocol.CompletionItem {
	out := make([]protocol.CompletionItem, 0, len(items))
	for _, it := range items {
		out = append(out, protocol.CompletionItem{
			Label:            it.Label,
			InsertText:       it.InsertText,
			InsertTextFormat: protocol.InsertTextFormatSnippet,
			Detail:           it.Detail,
			Preselect:        it.Preselect,
			SortText:         it.SortText,
		})
	}
	return out
}

func (s *Server) handleDocumentSymbol(raw json.RawMessage) (interface{}, error) {
	var params protocol.DocumentSymbolParams
	if err := unmarshalParams(raw, &params); err != nil {
		return nil, err
	}
	uri := string(params.TextDocument.URI)

	text, ok := s.docs.Text(uri)
	if !ok {
		return []protocol.DocumentSymbol{}, nil
	}

	symbols, ok := s.docs.DocumentSymbols(uri)
	if !ok {
		return []protocol.DocumentSymbol{}, nil
	}
	return toProtocolDocumentSymbols(text, symbols), nil
}

func toProtocolDocumentSymbols(text string, symbols []document.Symbol) []protocol.DocumentSymbol {
	out := make([]protocol.DocumentSymbol, 0, len(symbols))
	for _, sym := range symbols {
		r := rangeForSpan(text, sym.Span.Start.Byte, sym.Span.End.Byte)
		out = append(out, protocol.DocumentSymbol{
			Name:           sym.Name,
			Kind:           toProtocolSymbolKind(sym.Kind),
			Range:          r,
			SelectionRange: r,
		})
	}
	return out
}

func toProtocolSymbolKind(k document.SymbolKind) protocol.SymbolKind {
	switch k {
	case document.KindMovement:
		return protocol.SymbolKindFunction
	case document.KindTemperature, document.KindFan:
		return protocol.SymbolKindEvent
	case document.KindTool:
		return protocol.SymbolKindConstructor
	default:
		return protocol.SymbolKindVariable
	}
}
