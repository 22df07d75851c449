package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/alarm-clock/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"hm": func(h, m int) string {
		return fmt.Sprintf("%02d:%02d", h, m)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Alarm Clock</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.face { font-size: 3em; background: #111; color: #f33; padding: 0.2em 0.5em; display: inline-block; white-space: pre; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.ringing { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Alarm Clock{{if .Live}}<span id="live-dot" class="live-dot pending" title="connecting"></span>{{end}}</h1>

<div id="face" class="face">{{.Display}}</div>

<h2>State</h2>
<table>
<tr><th>State</th><td id="state">{{if .Ready}}{{.State}}{{else}}UNKNOWN{{end}}</td></tr>
<tr><th>Clock</th><td id="clock">{{if .Ready}}{{.Wall.Format "2006-01-02 15:04:05"}}{{end}}</td></tr>
<tr><th>Volume</th><td>{{.Settings.Volume}}</td></tr>
{{if .NapRemaining}}<tr><th>Nap remaining</th><td>{{uptime .NapRemaining}}</td></tr>{{end}}
</table>

<h2>Alarms</h2>
<table>
{{range $i, $a := .Settings.Alarms}}<tr><th>{{if eq $i 0}}A{{else}}B{{end}}</th><td class="{{if $a.Enabled}}on{{else}}off{{end}}">{{hm $a.Hour $a.Minute}} {{if $a.Enabled}}on{{else}}off{{end}}{{if $a.Weekend}}, weekends{{end}}, track {{$a.Track}}</td></tr>
{{end}}</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Alarm A rings</th><td>{{.Counts.RingsA}}</td></tr>
<tr><th>Alarm B rings</th><td>{{.Counts.RingsB}}</td></tr>
<tr><th>Nap rings</th><td>{{.Counts.NapRings}}</td></tr>
<tr><th>Stops</th><td>{{.Counts.Stops}}</td></tr>
<tr><th>Settings saved</th><td>{{.Counts.SettingsSaved}}</td></tr>
<tr><th>Clock adjusts</th><td>{{.Counts.ClockAdjusts}}</td></tr>
<tr><th>Input errors</th><td>{{.Counts.InputErrors}}</td></tr>
<tr><th>Effect errors</th><td>{{.Counts.EffectErrors}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Long press</th><td>{{.Config.LongPressMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
<tr><th>Media</th><td>{{.Config.MediaDir}} ({{len .Config.Tracks}} tracks)</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
{{if .Live}}
<script>
(function() {
  var dot = document.getElementById("live-dot");
  var face = document.getElementById("face");
  var state = document.getElementById("state");
  var clock = document.getElementById("clock");
  var frame = null;

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  function paint() {
    if (!frame) { return; }
    var off = frame.blink && (Date.now() % 600) < 300;
    var d = frame.digits.slice();
    for (var i = 0; i < 4; i++) {
      if (off && (frame.blink & (1 << i))) { d[i] = " "; }
      if (!d[i]) { d[i] = " "; }
    }
    var colon = frame.colon && !(off && (frame.blink & 16));
    face.textContent = d[0] + d[1] + (colon ? ":" : " ") + d[2] + d[3];
    state.textContent = frame.state;
    state.className = frame.state.indexOf("RINGING") >= 0 ? "ringing" : "";
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() {
      setDot("err", "offline");
      setTimeout(connect, 5000);
    };
    ws.onmessage = function(ev) {
      try {
        var msg = JSON.parse(ev.data);
        if (msg.type === "frame") {
          frame = msg.data;
          clock.textContent = msg.data.clock;
          paint();
        }
      } catch (e) {}
    };
  }

  setInterval(paint, 100);
  connect();
})();
</script>
{{end}}
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot, live bool) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Live   bool
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Live:     live,
	}
	indexTmpl.Execute(w, data)
}
