package mcp

import "net/http"

const landingHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Course Chat MCP Server</title>
<style>
  *, *::before, *::after { box-sizing: border-box; margin: 0; padding: 0; }
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; background: #111827; color: #e5e7eb; min-height: 100vh; display: flex; align-items: center; justify-content: center; }
  .card { max-width: 600px; width: 90%; background: #1f2937; border-radius: 12px; padding: 2.5rem; box-shadow: 0 25px 50px rgba(0,0,0,0.4); }
  h1 { font-size: 1.75rem; margin-bottom: 0.5rem; color: #f9fafb; }
  .subtitle { color: #9ca3af; margin-bottom: 1.75rem; }
  .section { margin-bottom: 1.5rem; }
  .section-title { font-size: 0.75rem; text-transform: uppercase; letter-spacing: 0.1em; color: #6b7280; margin-bottom: 0.5rem; }
  a { color: #34d399; text-decoration: none; }
  a:hover { text-decoration: underline; }
  pre { background: #111827; border: 1px solid #374151; border-radius: 8px; padding: 1rem; overflow-x: auto; font-size: 0.85rem; line-height: 1.5; color: #e5e7eb; }
  code { font-family: "SF Mono", "Fira Code", Menlo, monospace; }
  .tool { font-family: "SF Mono", monospace; font-size: 0.9rem; color: #a7f3d0; }
  .status { display: inline-block; width: 8px; height: 8px; background: #22c55e; border-radius: 50%; margin-right: 0.5rem; }
  .endpoint { font-family: "SF Mono", monospace; font-size: 0.9rem; color: #a7f3d0; }
</style>
</head>
<body>
<div class="card">
  <h1>Course Chat MCP Server</h1>
  <p class="subtitle">Semantic search over indexed course materials via the Model Context Protocol.</p>

  <div class="section">
    <div class="section-title">Add to an MCP client</div>
    <pre><code>claude mcp add coursechat --transport streamable-http http://localhost:8080/mcp</code></pre>
  </div>

  <div class="section">
    <div class="section-title">Tools</div>
    <p><span class="tool">search_course_content</span> &mdash; filtered semantic search</p>
    <p><span class="tool">get_course_outline</span> &mdash; course structure and lesson list</p>
    <p><span class="tool">list_courses</span> / <span class="tool">get_index_status</span> &mdash; what is indexed</p>
  </div>

  <div class="section">
    <div class="section-title">Endpoints</div>
    <p><span class="status"></span><a href="/mcp" class="endpoint">/mcp</a> &mdash; MCP Streamable HTTP</p>
    <p><span class="status"></span><a href="/health" class="endpoint">/health</a> &mdash; Health check</p>
  </div>
</div>
</body>
</html>`

// NewLandingHandler returns the handler serving the landing page at /.
func NewLandingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(landingHTML))
	}
}
