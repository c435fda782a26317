package pool

import "sync"

// SharedBufferPool 共享拷贝缓冲池，32KB 一块
var SharedBufferPool = sync.Pool{
	New: func() interface{} {
		return make([]byte, 32*1024)
	},
}
