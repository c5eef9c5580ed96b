package escpos

import (
	"bytes"
	"testing"
)

func TestCommandBytes(t *testing.T) {
	if !bytes.Equal(Init, []byte{0x1b, '@'}) {
		t.Errorf("unexpected init sequence: %v", Init)
	}
	if !bytes.Equal(AlignLeft, []byte{0x1b, 'a', 0x00}) {
		t.Errorf("unexpected align-left sequence: %v", AlignLeft)
	}
	if !bytes.Equal(AlignCenter, []byte{0x1b, 'a', 0x01}) {
		t.Errorf("unexpected align-center sequence: %v", AlignCenter)
	}
	if !bytes.Equal(BoldOn, []byte{0x1b, 'E', 0x01}) {
		t.Errorf("unexpected bold-on sequence: %v", BoldOn)
	}
	if !bytes.Equal(BoldOff, []byte{0x1b, 'E', 0x00}) {
		t.Errorf("unexpected bold-off sequence: %v", BoldOff)
	}
	if !bytes.Equal(CutFullSeq, []byte{0x1d, 'V', 0x00}) {
		t.Errorf("unexpected full-cut sequence: %v", CutFullSeq)
	}
}

func TestFeed(t *testing.T) {
	if !bytes.Equal(Feed(1), []byte{0x1b, 'd', 0x01}) {
		t.Errorf("unexpected feed(1): %v", Feed(1))
	}
	if !bytes.Equal(Feed(4), []byte{0x1b, 'd', 0x04}) {
		t.Errorf("unexpected feed(4): %v", Feed(4))
	}
	if !bytes.Equal(Feed(-3), []byte{0x1b, 'd', 0x00}) {
		t.Errorf("negative feed should clamp to zero: %v", Feed(-3))
	}
	if !bytes.Equal(Feed(1000), []byte{0x1b, 'd', 0xff}) {
		t.Errorf("oversized feed should clamp to 255: %v", Feed(1000))
	}
}

func TestCutModes(t *testing.T) {
	if !bytes.Equal(Cut(CutFull), CutFullSeq) {
		t.Error("full cut should emit the full-cut sequence")
	}
	if !bytes.Equal(Cut(CutPartial), CutPartialSeq) {
		t.Error("partial cut should emit the partial-cut sequence")
	}
	if Cut(CutNone) != nil {
		t.Error("cut mode none should emit nothing")
	}
}

func TestNewRendererValidatesProfile(t *testing.T) {
	bad := DefaultProfile()
	bad.CharsPerLine = 0
	if _, err := NewRenderer(bad); err == nil {
		t.Error("expected error for non-positive width")
	}

	bad = DefaultProfile()
	bad.Encoding = "utf-99"
	if _, err := NewRenderer(bad); err == nil {
		t.Error("expected error for unknown encoding")
	}

	bad = DefaultProfile()
	bad.CutMode = "diagonal"
	if _, err := NewRenderer(bad); err == nil {
		t.Error("expected error for unknown cut mode")
	}
}

func TestRenderBlockBasic(t *testing.T) {
	r := mustRenderer(t, DefaultProfile())
	out := r.RenderBlock(TextBlock{Text: "Hello World"})

	if !bytes.Contains(out, AlignLeft) {
		t.Error("expected left alignment command")
	}
	if !bytes.Contains(out, []byte("Hello World")) {
		t.Error("expected text bytes in output")
	}
	if !bytes.Contains(out, []byte{'\n'}) {
		t.Error("expected a line feed")
	}
}

func TestRenderBlockBoldRestoresDefaults(t *testing.T) {
	r := mustRenderer(t, DefaultProfile())
	out := r.RenderBlock(TextBlock{Text: "Bold Text", Bold: true})

	onIdx := bytes.Index(out, BoldOn)
	offIdx := bytes.Index(out, BoldOff)
	if onIdx < 0 || offIdx < 0 {
		t.Fatal("expected both bold-on and bold-off")
	}
	if offIdx < onIdx {
		t.Error("bold-off must come after bold-on")
	}
}

func TestRenderBlockSizeModes(t *testing.T) {
	r := mustRenderer(t, DefaultProfile())

	out := r.RenderBlock(TextBlock{Text: "big", DoubleHeight: true, DoubleWidth: true})
	if !bytes.Contains(out, DoubleSizeOn) {
		t.Error("expected double-size command when both flags are set")
	}
	if !bytes.Contains(out, NormalSize) {
		t.Error("expected normal-size restore")
	}

	out = r.RenderBlock(TextBlock{Text: "tall", DoubleHeight: true})
	if !bytes.Contains(out, DoubleHeightOn) {
		t.Error("expected double-height command")
	}
}

func TestRenderBlockCentered(t *testing.T) {
	r := mustRenderer(t, DefaultProfile())
	out := r.RenderBlock(TextBlock{Text: "Centered", Align: Center})

	if !bytes.Contains(out, AlignCenter) {
		t.Error("expected center alignment command")
	}
}

func TestRenderCompleteDocument(t *testing.T) {
	r := mustRenderer(t, DefaultProfile())
	out := r.Render([]TextBlock{
		{Text: "Header", Align: Center, Bold: true},
		{Text: "Body text here"},
	})

	if !bytes.HasPrefix(out, Init) {
		t.Error("document must start with the init sequence")
	}
	if !bytes.Contains(out, CutFullSeq) {
		t.Error("document must contain the cut sequence")
	}
	if !bytes.Contains(out, Feed(4)) {
		t.Error("document must feed before the cut")
	}
}

func TestRenderLine(t *testing.T) {
	p := DefaultProfile()
	p.CharsPerLine = 20
	r := mustRenderer(t, p)

	want := append(bytes.Repeat([]byte{'-'}, 20), '\n')
	if got := r.Line('-'); !bytes.Equal(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestBlankLines(t *testing.T) {
	r := mustRenderer(t, DefaultProfile())
	if got := r.BlankLines(3); !bytes.Equal(got, []byte("\n\n\n")) {
		t.Errorf("expected three line feeds, got %q", got)
	}
	if got := r.BlankLines(0); len(got) != 0 {
		t.Errorf("expected no output for zero lines, got %q", got)
	}
}

func TestEncodeTextFallback(t *testing.T) {
	r := mustRenderer(t, DefaultProfile())

	// cp437 has no box-drawing for CJK; unmappable runes become '?'.
	got := r.EncodeText("idea 日本")
	want := []byte("idea ??")
	if !bytes.Equal(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}

	// 'é' exists in cp437 at 0x82.
	got = r.EncodeText("café")
	if got[len(got)-1] != 0x82 {
		t.Errorf("expected cp437 byte 0x82 for 'é', got 0x%02x", got[len(got)-1])
	}
}

func mustRenderer(t *testing.T, p Profile) *Renderer {
	t.Helper()
	r, err := NewRenderer(p)
	if err != nil {
		t.Fatalf("failed to create renderer: %v", err)
	}
	return r
}
