// Package app holds the state shared by every claimsense front end.
//
// An App owns the three-section Navigation, the last analysis result and the
// settings store. Front ends (the TUI, the websocket bridge, the CLI) call
// its handlers and receive updates through the View they supply:
//
//	view := &app.Recorder{}
//	a := app.New(app.Options{
//	    Analyzer: analysis.NewClient(),
//	    Exporter: report.NewExporter(""),
//	    Settings: settings.NewStore(settings.NewMemoryRepository()),
//	    View:     view,
//	})
//	a.SubmitAnalysis(ctx, "Vitamin C cures colds")
//	a.ExportReport()
package app
