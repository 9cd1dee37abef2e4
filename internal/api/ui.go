package api

import (
	"net/http"
)

const playerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Storyloom</title>
    <style>
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: Georgia, serif;
            background: #14131a;
            color: #e8e3d8;
            height: 100vh;
            display: flex;
            flex-direction: column;
        }
        header {
            background: #1d1b26;
            padding: 12px 20px;
            border-bottom: 1px solid #2e2b3d;
            display: flex;
            justify-content: space-between;
            align-items: center;
        }
        header h1 { font-size: 16px; font-weight: normal; letter-spacing: 2px; }
        #status {
            padding: 4px 10px;
            border-radius: 4px;
            font-size: 12px;
            font-family: monospace;
        }
        #status.connected { background: #1b4332; color: #95d5b2; }
        #status.disconnected { background: #7f1d1d; color: #fca5a5; }
        #status.connecting { background: #78350f; color: #fcd34d; }
        main {
            flex: 1;
            overflow-y: auto;
            padding: 24px;
            max-width: 760px;
            margin: 0 auto;
            width: 100%;
        }
        .line {
            padding: 10px 14px;
            margin-bottom: 8px;
            background: #1d1b26;
            border-radius: 4px;
            border-left: 3px solid #2e2b3d;
            line-height: 1.5;
        }
        .line.narration { font-style: italic; border-left-color: #6c5f8d; }
        .line .speaker { color: #c9a85c; margin-right: 8px; }
        .choices button {
            display: block;
            width: 100%;
            text-align: left;
            padding: 10px 14px;
            margin-bottom: 6px;
            background: #26233a;
            color: #e8e3d8;
            border: 1px solid #3a3552;
            border-radius: 4px;
            font-family: inherit;
            font-size: 15px;
            cursor: pointer;
        }
        .choices button:hover { background: #322d4d; }
        footer {
            padding: 12px 20px;
            border-top: 1px solid #2e2b3d;
            display: flex;
            gap: 8px;
        }
        footer button {
            padding: 8px 18px;
            background: #26233a;
            color: #e8e3d8;
            border: 1px solid #3a3552;
            border-radius: 4px;
            cursor: pointer;
        }
    </style>
</head>
<body>
    <header>
        <h1>STORYLOOM</h1>
        <span id="status" class="connecting">connecting</span>
    </header>
    <main id="log"></main>
    <footer>
        <button onclick="send('advance')">Continue</button>
        <button onclick="send('skip')">Skip</button>
    </footer>
    <script>
        let ws;
        const log = document.getElementById('log');
        const status = document.getElementById('status');

        function send(signal, payload) {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.send(JSON.stringify({signal: signal, payload: payload}));
            }
        }

        function append(html) {
            const div = document.createElement('div');
            div.innerHTML = html;
            log.appendChild(div.firstElementChild || div);
            log.scrollTop = log.scrollHeight;
        }

        function render(e) {
            const f = e.fields || {};
            if (e.signal === 'dialogue.line') {
                const speaker = f.speaker ? '<span class="speaker">' + f.speaker + '</span>' : '';
                const cls = f.speaker ? 'line' : 'line narration';
                append('<div class="' + cls + '">' + speaker + (f.html || f.text || '') + '</div>');
            } else if (e.signal === 'choice.shown') {
                let html = '<div class="choices">';
                (f.options || []).forEach(function(o) {
                    html += '<button onclick="send(\'choice.select\', {index: ' + o.index + '})">' +
                        (o.html || o.text) + '</button>';
                });
                append(html + '</div>');
            } else if (e.signal === 'chapter.started') {
                append('<div class="line narration"><strong>' + (f.title || '') + '</strong></div>');
            }
        }

        function connect() {
            const proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
            ws = new WebSocket(proto + '//' + location.host + '/ws');
            ws.onopen = function() { status.textContent = 'connected'; status.className = 'connected'; };
            ws.onclose = function() {
                status.textContent = 'disconnected'; status.className = 'disconnected';
                setTimeout(connect, 2000);
            };
            ws.onmessage = function(msg) {
                try { render(JSON.parse(msg.data)); } catch (err) {}
            };
        }
        connect();
    </script>
</body>
</html>`

// uiHandler serves the built-in player console.
func (s *Server) uiHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(playerUIHTML))
}
