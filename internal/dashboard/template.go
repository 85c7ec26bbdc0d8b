package dashboard

import "html/template"

// pageData feeds the dashboard template.
type pageData struct {
	GeneratedAt string
	RunDate     string
	Locations   []locationCards
	Windows     []string
}

var pageTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Space Booking Dashboard</title>
<script src="https://cdn.jsdelivr.net/npm/chart.js@4"></script>
<style>
  body { font-family: system-ui, sans-serif; margin: 0; background: #f8fafc; color: #0f172a; }
  header { background: #1e293b; color: #f8fafc; padding: 1rem 2rem; }
  header p { margin: 0.25rem 0 0; color: #94a3b8; font-size: 0.85rem; }
  main { padding: 1rem 2rem 3rem; }
  h2 { margin-top: 2rem; border-bottom: 1px solid #e2e8f0; padding-bottom: 0.25rem; }
  .cards { display: grid; grid-template-columns: repeat(auto-fill, minmax(240px, 1fr)); gap: 0.75rem; }
  .card { border-radius: 8px; padding: 0.75rem 1rem; color: #fff; }
  .card .space { font-weight: 600; }
  .card .next { font-size: 0.85rem; opacity: 0.9; }
  .chart-block { background: #fff; border: 1px solid #e2e8f0; border-radius: 8px; padding: 1rem; margin-top: 1rem; }
  canvas { max-height: 360px; }
</style>
</head>
<body>
<header>
  <h1>Space Booking Dashboard</h1>
  <p>Run date {{.RunDate}} &middot; generated {{.GeneratedAt}}</p>
</header>
<main>
  <h2>Next Available Booking</h2>
  {{range .Locations}}
  <h3>{{.LocationName}}</h3>
  <div class="cards">
    {{range .Cards}}
    <div class="card" style="background: {{.Color}}">
      <div class="space">{{.SpaceName}}</div>
      <div class="next">{{.NextAvailable}}</div>
    </div>
    {{end}}
  </div>
  {{end}}

  <h2>Booking Rates Over Time</h2>
  {{range .Windows}}
  <div class="chart-block">
    <h3>{{.}}</h3>
    <canvas id="chart-{{.}}"></canvas>
  </div>
  {{end}}
</main>
<script>
fetch('time_series_data.json')
  .then(function (resp) { return resp.json(); })
  .then(function (data) {
    Object.keys(data.windows).forEach(function (name) {
      var el = document.getElementById('chart-' + name);
      if (!el) return;
      var w = data.windows[name];
      new Chart(el, {
        type: 'line',
        data: {
          labels: w.labels,
          datasets: w.series.map(function (s) {
            return { label: s.name, data: s.data, spanGaps: true, tension: 0.2 };
          })
        },
        options: {
          responsive: true,
          scales: { y: { min: 0, max: 100, title: { display: true, text: 'Booking rate (%)' } } }
        }
      });
    });
  });
</script>
</body>
</html>
`))
