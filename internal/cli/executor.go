package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	jsoniter "github.com/json-iterator/go"
	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// OutputFormat represents the output format for CLI commands
type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use table, json or yaml)", s)
	}
}

// ExecutorOptions contains options for tool execution
type ExecutorOptions struct {
	Format OutputFormat
	Quiet  bool
	Out    io.Writer
	ErrOut io.Writer
}

// ToolError is a tool result flagged as an error. Kind and Hint are filled
// when the text is a structured error detail.
type ToolError struct {
	Kind    string
	Message string
	Hint    string
	Text    string
}

func (e *ToolError) Error() string {
	if e.Kind != "" {
		return e.Kind + ": " + e.Message
	}
	return e.Text
}

// ToolExecutor calls tools and prints their results.
type ToolExecutor struct {
	caller  Caller
	options ExecutorOptions
}

// NewToolExecutor creates a new tool executor
func NewToolExecutor(caller Caller, options ExecutorOptions) *ToolExecutor {
	if options.Format == "" {
		options.Format = OutputFormatTable
	}
	if options.Out == nil {
		options.Out = os.Stdout
	}
	if options.ErrOut == nil {
		options.ErrOut = os.Stderr
	}
	return &ToolExecutor{caller: caller, options: options}
}

// Close releases the caller.
func (e *ToolExecutor) Close() error {
	return e.caller.Close()
}

// Execute runs a tool, prints its output and returns the raw text result.
func (e *ToolExecutor) Execute(ctx context.Context, toolName string, arguments map[string]interface{}) (string, error) {
	result, err := e.caller.CallTool(ctx, toolName, arguments)
	if err != nil {
		return "", fmt.Errorf("failed to execute tool %s: %w", toolName, err)
	}

	raw := resultText(result)
	if result.IsError {
		return raw, e.formatError(raw)
	}
	return raw, e.formatOutput(raw)
}

func resultText(result *mcp.CallToolResult) string {
	var parts []string
	for _, content := range result.Content {
		if textContent, ok := mcp.AsTextContent(content); ok {
			parts = append(parts, textContent.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// formatError prints the error and returns it as a *ToolError.
func (e *ToolExecutor) formatError(raw string) error {
	toolErr := &ToolError{Text: raw}
	var detail struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Hint    string `json:"hint"`
	}
	if err := json.Unmarshal([]byte(raw), &detail); err == nil && detail.Error != "" {
		toolErr.Kind = detail.Error
		toolErr.Message = detail.Message
		toolErr.Hint = detail.Hint
	}

	fmt.Fprintf(e.options.ErrOut, "%s %s\n", text.FgRed.Sprint("Error:"), toolErr.Error())
	if toolErr.Hint != "" {
		fmt.Fprintf(e.options.ErrOut, "%s %s\n", text.FgYellow.Sprint("Hint:"), toolErr.Hint)
	}
	return toolErr
}

// formatOutput formats the tool output according to the specified format
func (e *ToolExecutor) formatOutput(raw string) error {
	if raw == "" {
		if !e.options.Quiet {
			fmt.Fprintln(e.options.Out, "No results")
		}
		return nil
	}

	switch e.options.Format {
	case OutputFormatJSON:
		fmt.Fprintln(e.options.Out, raw)
		return nil
	case OutputFormatYAML:
		return e.outputYAML(raw)
	case OutputFormatTable:
		return e.outputTable(raw)
	default:
		return fmt.Errorf("unsupported output format: %s", e.options.Format)
	}
}

// outputYAML converts JSON to YAML and prints it
func (e *ToolExecutor) outputYAML(jsonData string) error {
	var data interface{}
	if err := json.Unmarshal([]byte(jsonData), &data); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	yamlData, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to convert to YAML: %w", err)
	}

	fmt.Fprint(e.options.Out, string(yamlData))
	return nil
}

// outputTable prints scalar fields as a key/value table followed by one
// table per list of objects.
func (e *ToolExecutor) outputTable(jsonData string) error {
	var data interface{}
	if err := json.Unmarshal([]byte(jsonData), &data); err != nil {
		fmt.Fprintln(e.options.Out, jsonData)
		return nil
	}

	obj, ok := data.(map[string]interface{})
	if !ok {
		fmt.Fprintln(e.options.Out, jsonData)
		return nil
	}

	rows := make(map[string]interface{})
	lists := make(map[string][]interface{})
	flatten("", obj, rows, lists)

	e.formatKeyValueTable(rows)
	listKeys := make([]string, 0, len(lists))
	for k := range lists {
		listKeys = append(listKeys, k)
	}
	sort.Strings(listKeys)
	for _, k := range listKeys {
		fmt.Fprintf(e.options.Out, "\n%s\n", text.FgHiBlue.Sprint(k))
		e.formatTableFromArray(lists[k])
	}
	return nil
}

// flatten walks obj. Scalars and scalar lists land in rows under dotted keys,
// lists of objects land in lists. The serverless_config document is large
// and only shown in json or yaml output.
func flatten(prefix string, obj map[string]interface{}, rows map[string]interface{}, lists map[string][]interface{}) {
	for k, v := range obj {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]interface{}:
			if k == "serverless_config" {
				rows[key] = fmt.Sprintf("<%d keys, use -o yaml>", len(val))
				continue
			}
			flatten(key, val, rows, lists)
		case []interface{}:
			if len(val) > 0 {
				if _, isObj := val[0].(map[string]interface{}); isObj {
					lists[key] = val
					continue
				}
			}
			rows[key] = joinScalars(val)
		default:
			rows[key] = val
		}
	}
}

func joinScalars(values []interface{}) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%v", v)
	}
	return strings.Join(parts, ", ")
}

func (e *ToolExecutor) formatKeyValueTable(rows map[string]interface{}) {
	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := table.NewWriter()
	t.SetOutputMirror(e.options.Out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{text.FgHiCyan.Sprint("FIELD"), text.FgHiCyan.Sprint("VALUE")})
	for _, k := range keys {
		t.AppendRow(table.Row{k, formatCellValue(k, rows[k])})
	}
	t.Render()
}

// formatTableFromArray creates a table from a list of objects
func (e *ToolExecutor) formatTableFromArray(data []interface{}) {
	columnSet := make(map[string]bool)
	for _, item := range data {
		if m, ok := item.(map[string]interface{}); ok {
			for k := range m {
				columnSet[k] = true
			}
		}
	}
	columns := make([]string, 0, len(columnSet))
	for k := range columnSet {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	t := table.NewWriter()
	t.SetOutputMirror(e.options.Out)
	t.SetStyle(table.StyleRounded)

	headers := make(table.Row, len(columns))
	for i, col := range columns {
		headers[i] = text.FgHiCyan.Sprint(strings.ToUpper(col))
	}
	t.AppendHeader(headers)

	for _, item := range data {
		m, _ := item.(map[string]interface{})
		row := make(table.Row, len(columns))
		for i, col := range columns {
			row[i] = formatCellValue(col, m[col])
		}
		t.AppendRow(row)
	}
	t.Render()
}

// formatCellValue colours status values and marks missing ones.
func formatCellValue(column string, value interface{}) interface{} {
	if value == nil {
		return text.FgHiBlack.Sprint("-")
	}
	s := fmt.Sprintf("%v", value)
	if column != "status" && !strings.HasSuffix(column, ".status") {
		return s
	}
	switch s {
	case "satisfied", "install_launched", "installation_authorized":
		return text.FgGreen.Sprint(s)
	case "confirmation_required", "missing":
		return text.FgYellow.Sprint(s)
	case "blocked", "launch_failed":
		return text.FgRed.Sprint(s)
	default:
		return s
	}
}
