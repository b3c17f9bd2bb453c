package uploader

import (
	"io"
	"sync"
)

// progressReader reports how much of the body was read as a percentage.
// The reported value never goes down and stays within 0..100.
type progressReader struct {
	r     io.Reader
	total int64

	mu       sync.Mutex
	read     int64
	last     int
	onChange func(int)
}

func newProgressReader(r io.Reader, total int64, onChange func(int)) *progressReader {
	return &progressReader{r: r, total: total, onChange: onChange}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.advance(int64(n))
	}

	return n, err
}

func (p *progressReader) advance(n int64) {
	p.mu.Lock()

	p.read += n

	pct := 100
	if p.total > 0 {
		pct = int(p.read * 100 / p.total)
	}
	pct = max(0, min(pct, 100))

	if pct <= p.last {
		p.mu.Unlock()
		return
	}

	p.last = pct
	p.mu.Unlock()

	if p.onChange != nil {
		p.onChange(pct)
	}
}
