package api

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/scholar-impact/pkg/kit"
)

// RegisterMCPTools registers the resolve, annotate and table tools on the server.
func RegisterMCPTools(srv *server.MCPServer, svc *Service) {
	registerResolveLabel(srv, svc)
	registerAnnotateHTML(srv, svc)
	registerTableInfo(srv, svc)
}

func registerResolveLabel(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool("resolve_label",
		mcp.WithDescription("Resolve a raw publication venue line (e.g. \"Nature Communications 12 (1), 2021\") to its canonical journal key and impact factor."),
		mcp.WithString("label", mcp.Required(), mcp.Description("The venue line as shown under a publication")),
	)

	kit.RegisterMCPTool(srv, tool, svc.resolveEndpoint(), func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		label, _ := req.GetArguments()["label"].(string)
		return &kit.MCPDecodeResult{Request: &resolveReq{Label: label}}, nil
	})
}

func registerAnnotateHTML(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool("annotate_html",
		mcp.WithDescription("Annotate a Google Scholar profile page: add an impact factor marker to each matched publication and a total summary block. Returns the annotated HTML and a per-entry report."),
		mcp.WithString("html", mcp.Required(), mcp.Description("The full profile page HTML")),
	)

	kit.RegisterMCPTool(srv, tool, svc.annotateEndpoint(), func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		doc, _ := req.GetArguments()["html"].(string)
		return &kit.MCPDecodeResult{Request: &annotateReq{HTML: doc}}, nil
	})
}

func registerTableInfo(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool("table_info",
		mcp.WithDescription("Describe the loaded impact factor table (id, version, source, entry count, load statistics)."),
	)

	kit.RegisterMCPTool(srv, tool, svc.tableEndpoint(), func(_ mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	})
}
