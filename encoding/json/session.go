package json

import (
	"sync"

	"github.com/viant/tojson"
)

const maxPooledCap = 64 << 10

var bufferPool = sync.Pool{New: func() interface{} { return tojson.NewBuffer(512) }}

func acquireBuffer() *tojson.Buffer {
	buf := bufferPool.Get().(*tojson.Buffer)
	buf.Reset()
	return buf
}

func releaseBuffer(buf *tojson.Buffer) {
	if buf.Len()+buf.Spare() > maxPooledCap {
		return
	}
	bufferPool.Put(buf)
}
