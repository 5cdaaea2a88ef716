package dispatch

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		name        string
		body        string
		format      Format
		renderable  string
		state       string
		nonstandard bool
	}{
		{name: "bare markup", body: "<p>ok</p>", format: FormatUnparseable, renderable: "<p>ok</p>"},
		{name: "plain text", body: "done", format: FormatUnparseable, renderable: "done"},
		{name: "empty", body: "", format: FormatUnparseable, renderable: ""},
		{name: "json string", body: `"<p>legacy</p>"`, format: FormatMarkup, renderable: "<p>legacy</p>"},
		{name: "dual channel", body: `{"htmlResponse":"<p>ok</p>","jsonData":{"b":2,"a":1}}`, format: FormatMarkupPlusState, renderable: "<p>ok</p>", state: `{"b":2,"a":1}`},
		{name: "dual channel null state", body: `{"htmlResponse":"<p>ok</p>","jsonData":null}`, format: FormatMarkupPlusState, renderable: "<p>ok</p>"},
		{name: "structured without markup", body: `{"status":"Success"}`, format: FormatMarkupPlusState, nonstandard: true},
		{name: "markup field wrong type", body: `{"htmlResponse":5}`, format: FormatMarkupPlusState, nonstandard: true},
		{name: "json array", body: `[1,2]`, format: FormatMarkupPlusState, nonstandard: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			envelope := Classify(tc.body)
			if envelope.Format != tc.format {
				t.Fatalf("expected format %s, got %s", tc.format, envelope.Format)
			}
			if envelope.Renderable() != tc.renderable {
				t.Fatalf("expected renderable %q, got %q", tc.renderable, envelope.Renderable())
			}
			if string(envelope.State) != tc.state {
				t.Fatalf("expected state %q, got %q", tc.state, envelope.State)
			}
			if envelope.Nonstandard != tc.nonstandard {
				t.Fatalf("expected nonstandard=%v", tc.nonstandard)
			}
		})
	}
}

func TestExpectsState(t *testing.T) {
	if Classify("<p>x</p>").ExpectsState() {
		t.Fatal("expected unparseable envelope not to drive the side panel")
	}
	if !Classify(`{"htmlResponse":""}`).ExpectsState() {
		t.Fatal("expected dual-channel envelope to drive the side panel")
	}
}
