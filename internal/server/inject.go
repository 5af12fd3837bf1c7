// Package server is the preview HTTP server: it serves the portfolio
// working tree and reloads open pages when their sources are rebuilt.
package server

import (
	"bytes"
	"fmt"
)

// reloadPath is where browsers open the live reload WebSocket.
const reloadPath = "/__livereload"

// liveReloadScript reconnects after the server restarts. The verbs are the
// nonce and the WebSocket path.
const liveReloadScript = `<script nonce="%s">
(function() {
  var url = "ws://" + location.host + "%s";
  function connect() {
    var ws = new WebSocket(url);
    ws.onmessage = function(e) {
      if (e.data === "reload") {
        location.reload();
      }
    };
    ws.onclose = function() {
      setTimeout(connect, 1000);
    };
  }
  connect();
})();
</script>`

// InjectLiveReload inserts the live reload script before the last </body>
// tag of html, or appends it when there is none.
func InjectLiveReload(html []byte, nonce string) []byte {
	script := fmt.Appendf(nil, liveReloadScript, nonce, reloadPath)

	idx := bytes.LastIndex(bytes.ToLower(html), []byte("</body>"))
	if idx == -1 {
		return append(html, script...)
	}

	result := make([]byte, 0, len(html)+len(script))
	result = append(result, html[:idx]...)
	result = append(result, script...)
	result = append(result, html[idx:]...)
	return result
}
