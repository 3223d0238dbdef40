package livereload

import (
	"bytes"
)

// ClientScript is the JavaScript injected into served HTML documents while
// live reload is enabled. It connects to the broker and reloads the page
// (or swaps stylesheets in place) on notification.
const ClientScript = `
<script>
(function() {
    'use strict';

    var reconnectDelay = 1000;
    var maxReconnectDelay = 30000;
    var ws = null;

    function connect() {
        var protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
        ws = new WebSocket(protocol + '//' + location.host + '/_easel/reload');

        ws.onopen = function() {
            console.log('[easel] Live reload connected');
            reconnectDelay = 1000;
        };

        ws.onmessage = function(e) {
            var msg;
            try {
                msg = JSON.parse(e.data);
            } catch (err) {
                return;
            }

            switch (msg.type) {
                case 'reload':
                    console.log('[easel] Reloading...');
                    location.reload();
                    break;

                case 'css':
                    console.log('[easel] Reloading CSS...');
                    reloadCSS();
                    break;
            }
        };

        ws.onclose = function() {
            setTimeout(function() {
                reconnectDelay = Math.min(reconnectDelay * 2, maxReconnectDelay);
                connect();
            }, reconnectDelay);
        };

        ws.onerror = function() {
            ws.close();
        };
    }

    function reloadCSS() {
        var links = document.querySelectorAll('link[rel="stylesheet"]');
        links.forEach(function(link) {
            var url = new URL(link.href);
            url.searchParams.set('_reload', Date.now());
            link.href = url.toString();
        });
    }

    if (document.readyState === 'loading') {
        document.addEventListener('DOMContentLoaded', connect);
    } else {
        connect();
    }
})();
</script>
`

// InjectScript inserts the client script into an HTML document, before
// </body> when present, before </html> otherwise, appended as a last resort.
func InjectScript(body []byte) []byte {
	script := []byte(ClientScript)
	if idx := bytes.LastIndex(body, []byte("</body>")); idx != -1 {
		return insertAt(body, script, idx)
	}
	if idx := bytes.LastIndex(body, []byte("</html>")); idx != -1 {
		return insertAt(body, script, idx)
	}
	return append(append([]byte{}, body...), script...)
}

func insertAt(body, insert []byte, idx int) []byte {
	out := make([]byte, 0, len(body)+len(insert))
	out = append(out, body[:idx]...)
	out = append(out, insert...)
	out = append(out, body[idx:]...)
	return out
}
