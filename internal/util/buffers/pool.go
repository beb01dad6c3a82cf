// Package buffers provides reusable byte buffers for the output parser and
// the workspace archiver, which touch every file of every run.
package buffers

import (
	"sync"
	"sync/atomic"

	"github.com/talysviz/talysrun/internal/constants"
)

// Pool monitoring counters
var (
	scanAllocations int64
	copyAllocations int64
)

var (
	// scanPool provides initial line buffers for bufio.Scanner
	scanPool = &sync.Pool{
		New: func() interface{} {
			atomic.AddInt64(&scanAllocations, 1)
			buf := make([]byte, constants.ScanBufferSize)
			return &buf
		},
	}

	// copyPool provides io.CopyBuffer buffers for archiving
	copyPool = &sync.Pool{
		New: func() interface{} {
			atomic.AddInt64(&copyAllocations, 1)
			buf := make([]byte, constants.CopyBufferSize)
			return &buf
		},
	}
)

// GetScanBuffer retrieves a scanner buffer from the pool.
//
// Usage:
//
//	buf := buffers.GetScanBuffer()
//	defer buffers.PutScanBuffer(buf)
//	scanner.Buffer(*buf, constants.MaxLineLength)
func GetScanBuffer() *[]byte {
	return scanPool.Get().(*[]byte)
}

// PutScanBuffer returns a scanner buffer to the pool. Buffers of any other
// size (for example ones a Scanner grew past the pooled size) are dropped.
func PutScanBuffer(buf *[]byte) {
	if buf != nil && len(*buf) == constants.ScanBufferSize {
		scanPool.Put(buf)
	}
}

// GetCopyBuffer retrieves a copy buffer from the pool.
func GetCopyBuffer() *[]byte {
	return copyPool.Get().(*[]byte)
}

// PutCopyBuffer returns a copy buffer to the pool.
func PutCopyBuffer(buf *[]byte) {
	if buf != nil && len(*buf) == constants.CopyBufferSize {
		copyPool.Put(buf)
	}
}

// Stats reports pool allocations.
type Stats struct {
	ScanBufferSize  int
	CopyBufferSize  int
	ScanAllocations int64
	CopyAllocations int64
}

// GetStats returns current buffer pool statistics.
func GetStats() Stats {
	return Stats{
		ScanBufferSize:  constants.ScanBufferSize,
		CopyBufferSize:  constants.CopyBufferSize,
		ScanAllocations: atomic.LoadInt64(&scanAllocations),
		CopyAllocations: atomic.LoadInt64(&copyAllocations),
	}
}
