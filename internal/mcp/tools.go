package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/cratescope/internal/crate"
	"github.com/mvp-joe/cratescope/internal/extract"
	"github.com/mvp-joe/cratescope/internal/model"
	"github.com/mvp-joe/cratescope/internal/storage"
)

type handlerFunc = func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// CrateResponse is the extract_crate result.
type CrateResponse struct {
	Crate   *model.Crate  `json:"crate"`
	Files   int           `json:"files"`
	Skipped []SkippedFile `json:"skipped"`
}

type SkippedFile struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// CheckResponse is the check_rust result. Location fields are set only for
// syntax errors.
type CheckResponse struct {
	Valid   bool   `json:"valid"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Message string `json:"message,omitempty"`
}

// AddExtractCrateTool registers extract_crate.
func AddExtractCrateTool(s *server.MCPServer, deps Deps) {
	tool := mcp.NewTool(
		"extract_crate",
		mcp.WithDescription(`Extract the public interface of a Rust crate directory as JSON.

Reads Cargo.toml for the crate name and features, then visits every .rs file under src/ (or the directory itself when src/ is absent). Files that fail to parse are listed under "skipped" and do not fail the call.`),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Crate root directory (the one containing Cargo.toml)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createExtractCrateHandler(deps))
}

func createExtractCrateHandler(deps Deps) handlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, errResult := requiredString(request, "path")
		if errResult != nil {
			return errResult, nil
		}

		agg := crate.NewAggregator(deps.Fs, deps.Extractor, deps.CrateOptions, deps.Logger)
		result, err := agg.Extract(ctx, path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("extraction failed: %v", err)), nil
		}

		resp := CrateResponse{
			Crate:   result.Crate,
			Files:   len(result.Files),
			Skipped: []SkippedFile{},
		}
		for _, sk := range result.Skipped {
			resp.Skipped = append(resp.Skipped, SkippedFile{Path: sk.Path, Error: sk.Err.Error()})
		}

		return jsonResult(resp)
	}
}

// AddExtractFileTool registers extract_file.
func AddExtractFileTool(s *server.MCPServer, deps Deps) {
	tool := mcp.NewTool(
		"extract_file",
		mcp.WithDescription("Extract the public interface of a single Rust source file as JSON. The model is named after the file stem and has no features."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to a .rs file")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createExtractFileHandler(deps))
}

func createExtractFileHandler(deps Deps) handlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, errResult := requiredString(request, "path")
		if errResult != nil {
			return errResult, nil
		}

		c, err := deps.Extractor.ExtractFile(deps.Fs, path)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(c)
	}
}

// AddCheckRustTool registers check_rust.
func AddCheckRustTool(s *server.MCPServer) {
	tool := mcp.NewTool(
		"check_rust",
		mcp.WithDescription("Check whether Rust source text parses. Returns the location of the first syntax error."),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("Rust source text")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createCheckRustHandler())
}

func createCheckRustHandler() handlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		code, errResult := requiredString(request, "code")
		if errResult != nil {
			return errResult, nil
		}

		err := extract.Check("", []byte(code))
		if err == nil {
			return jsonResult(CheckResponse{Valid: true})
		}

		var syntaxErr *extract.SyntaxError
		if !errors.As(err, &syntaxErr) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(CheckResponse{
			Line:    syntaxErr.Line,
			Column:  syntaxErr.Column,
			Message: syntaxErr.Message,
		})
	}
}

// AddSnapshotSummaryTool registers snapshot_summary.
func AddSnapshotSummaryTool(s *server.MCPServer, reader *storage.Reader) {
	tool := mcp.NewTool(
		"snapshot_summary",
		mcp.WithDescription("Per-kind record counts and features of a stored crate snapshot. Without a crate name, lists the stored crates."),
		mcp.WithString("crate",
			mcp.Description("Crate name as stored (optional)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createSnapshotSummaryHandler(reader))
}

func createSnapshotSummaryHandler(reader *storage.Reader) handlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, ok := request.Params.Arguments.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}
		name, err := parseStringArg(argsMap, "crate", false)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		if name == "" {
			crates, err := reader.Crates(ctx)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(map[string][]string{"crates": crates})
		}

		summary, err := reader.Summary(ctx, name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(summary)
	}
}

// AddFindItemTool registers find_item.
func AddFindItemTool(s *server.MCPServer, reader *storage.Reader) {
	tool := mcp.NewTool(
		"find_item",
		mcp.WithDescription("Find the modules that declare a public record with the given name in a stored crate snapshot."),
		mcp.WithString("crate",
			mcp.Required(),
			mcp.Description("Crate name as stored")),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Record name, e.g. a struct or function name")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createFindItemHandler(reader))
}

func createFindItemHandler(reader *storage.Reader) handlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		crateName, errResult := requiredString(request, "crate")
		if errResult != nil {
			return errResult, nil
		}
		name, errResult := requiredString(request, "name")
		if errResult != nil {
			return errResult, nil
		}

		locations, err := reader.FindByName(ctx, crateName, name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(locations)
	}
}

// requiredString returns the named argument, or a tool error result when it
// is missing or not a non-empty string.
func requiredString(request mcp.CallToolRequest, key string) (string, *mcp.CallToolResult) {
	argsMap, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return "", mcp.NewToolResultError("invalid arguments format")
	}
	val, err := parseStringArg(argsMap, key, true)
	if err != nil {
		return "", mcp.NewToolResultError(err.Error())
	}
	return val, nil
}

// parseStringArg extracts a string argument from an MCP arguments map.
func parseStringArg(argsMap map[string]interface{}, key string, required bool) (string, error) {
	val, ok := argsMap[key]
	if !ok {
		if required {
			return "", fmt.Errorf("%s parameter is required", key)
		}
		return "", nil
	}

	str, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	if required && str == "" {
		return "", fmt.Errorf("%s cannot be empty", key)
	}
	return str, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
