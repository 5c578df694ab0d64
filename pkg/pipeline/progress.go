package pipeline

import (
	"io"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// progress is a record counter on stderr. A nil *progress is a no-op.
type progress struct {
	pbs *mpb.Progress
	bar *mpb.Bar
}

func newProgress(out io.Writer, name string, total int) *progress {
	pbs := mpb.New(mpb.WithWidth(40), mpb.WithOutput(out))
	bar := pbs.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name), C: decor.DindentRight}),
			decor.Name("", decor.WCSyncSpaceR),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
			decor.EwmaETA(decor.ET_STYLE_GO, 64),
			decor.OnComplete(decor.Name(""), ". done"),
		),
	)
	return &progress{pbs: pbs, bar: bar}
}

func (p *progress) increment(took time.Duration) {
	if p == nil {
		return
	}
	p.bar.EwmaIncrBy(1, took)
}

// wait flushes the bar. A failed run aborts it so Wait cannot block.
func (p *progress) wait(failed bool) {
	if p == nil {
		return
	}
	if failed {
		p.bar.Abort(false)
	}
	p.pbs.Wait()
}
