package write_buffer

import (
	"context"
	"fmt"
	"github.com/Avi18971911/DebugLens/internal/db/elasticsearch/client"
	"go.uber.org/zap"
	"sync"
	"time"
)

const WriteQueueSize = 30
const flushTimeOut = 10 * time.Second

// DatabaseWriteBuffer batches documents and bulk indexes them once more than
// the queue size are waiting.
type DatabaseWriteBuffer[ValueType any] interface {
	WriteToBuffer(values []ValueType)
	// Flush writes whatever is queued regardless of the queue size.
	Flush(ctx context.Context) error
}

type DatabaseWriteBufferImpl[ValueType any] struct {
	writeQueue  []ValueType
	queueSize   int
	dc          client.DebugLensClient
	esIndexName string
	logger      *zap.Logger
	mu          sync.Mutex
	inFlight    sync.WaitGroup
}

func NewDatabaseWriteBufferImpl[ValueType any](
	dc client.DebugLensClient,
	esIndexName string,
	queueSize int,
	logger *zap.Logger,
) *DatabaseWriteBufferImpl[ValueType] {
	if queueSize <= 0 {
		queueSize = WriteQueueSize
	}
	return &DatabaseWriteBufferImpl[ValueType]{
		writeQueue:  []ValueType{},
		queueSize:   queueSize,
		dc:          dc,
		esIndexName: esIndexName,
		logger:      logger,
	}
}

func (wb *DatabaseWriteBufferImpl[ValueType]) WriteToBuffer(values []ValueType) {
	wb.mu.Lock()
	wb.writeQueue = append(wb.writeQueue, values...)
	if len(wb.writeQueue) <= wb.queueSize {
		wb.mu.Unlock()
		return
	}
	batch := wb.drain()
	wb.inFlight.Add(1)
	wb.mu.Unlock()

	go func() {
		defer wb.inFlight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeOut)
		defer cancel()
		if err := wb.flushToElasticsearch(ctx, batch); err != nil {
			wb.logger.Error(
				"Failed to flush to Elasticsearch",
				zap.String("index", wb.esIndexName),
				zap.Int("documents", len(batch)),
				zap.Error(err),
			)
		}
	}()
}

func (wb *DatabaseWriteBufferImpl[ValueType]) Flush(ctx context.Context) error {
	wb.mu.Lock()
	batch := wb.drain()
	wb.mu.Unlock()

	err := wb.flushToElasticsearch(ctx, batch)
	wb.inFlight.Wait()
	return err
}

// drain must be called with mu held.
func (wb *DatabaseWriteBufferImpl[ValueType]) drain() []ValueType {
	batch := wb.writeQueue
	wb.writeQueue = []ValueType{}
	return batch
}

func (wb *DatabaseWriteBufferImpl[ValueType]) flushToElasticsearch(ctx context.Context, batch []ValueType) error {
	if len(batch) == 0 {
		return nil
	}
	metaMap, dataMap, err := client.ToMetaAndDataMap(batch)
	if err != nil {
		return fmt.Errorf("error converting write queue to meta and data map: %w", err)
	}
	err = wb.dc.BulkIndex(ctx, metaMap, dataMap, wb.esIndexName)
	if err != nil {
		return fmt.Errorf("error bulk indexing to Elasticsearch: %w", err)
	}
	return nil
}
