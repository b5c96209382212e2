package hal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fivetwenty-io/hal-client/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrInvalidDataTypeCreate = errors.New("invalid data type for create operation")
	ErrInvalidDataTypeExists = errors.New("invalid data type for exists operation")
)

// BatchOperation represents a single operation in a batch.
type BatchOperation struct {
	ID       string
	Type     string // "find", "create", "exists"
	Particle string
	Kind     QueryKind
	Params   *Params
	Data     interface{}
	Callback func(result *BatchResult)
}

// BatchResult represents the result of a batch operation.
type BatchResult struct {
	ID       string
	Success  bool
	Result   *Result
	Exists   bool
	Error    error
	Duration time.Duration
}

// BatchExecutor executes batch operations.
//
// Operations are grouped by particle. Groups run concurrently under a
// bounded semaphore; operations within a group run sequentially because
// each finder carries a single pagination cursor.
type BatchExecutor struct {
	client      Client
	concurrency int
	timeout     time.Duration
}

// NewBatchExecutor creates a new batch executor.
func NewBatchExecutor(client Client, concurrency int) *BatchExecutor {
	if concurrency <= 0 {
		concurrency = constants.DefaultConcurrencyLimit
	}

	return &BatchExecutor{
		client:      client,
		concurrency: concurrency,
		timeout:     constants.DefaultHTTPTimeout,
	}
}

// SetTimeout sets the timeout for individual batch operations.
func (b *BatchExecutor) SetTimeout(timeout time.Duration) {
	b.timeout = timeout
}

// Execute runs a batch of operations. Results are returned in the order
// the operations were submitted, regardless of grouping.
func (b *BatchExecutor) Execute(ctx context.Context, operations []BatchOperation) ([]BatchResult, error) {
	results := make([]BatchResult, len(operations))

	var waitGroup sync.WaitGroup

	semaphore := make(chan struct{}, b.concurrency)

	for _, group := range groupByParticle(operations) {
		waitGroup.Add(1)

		go func(indices []int) {
			defer waitGroup.Done()

			// Acquire semaphore
			semaphore <- struct{}{}

			defer func() { <-semaphore }()

			for _, index := range indices {
				operation := operations[index]

				// Execute operation with timeout
				opCtx, cancel := context.WithTimeout(ctx, b.timeout)

				start := time.Now()
				result := b.executeOperation(opCtx, operation)
				result.Duration = time.Since(start)
				results[index] = *result

				cancel()

				// Call callback if provided
				if operation.Callback != nil {
					operation.Callback(result)
				}
			}
		}(group)
	}

	waitGroup.Wait()

	return results, nil
}

// groupByParticle collects operation indices per particle, preserving
// submission order within each group and first-seen order across groups.
func groupByParticle(operations []BatchOperation) [][]int {
	particles := make([]string, 0, len(operations))
	indices := make(map[string][]int, len(operations))

	for index, operation := range operations {
		if _, seen := indices[operation.Particle]; !seen {
			particles = append(particles, operation.Particle)
		}

		indices[operation.Particle] = append(indices[operation.Particle], index)
	}

	groups := make([][]int, 0, len(particles))
	for _, particle := range particles {
		groups = append(groups, indices[particle])
	}

	return groups
}

// executeOperation executes a single operation.
func (b *BatchExecutor) executeOperation(ctx context.Context, operation BatchOperation) *BatchResult {
	result := &BatchResult{
		ID: operation.ID,
	}

	finder := b.client.Model(operation.Particle)

	switch operation.Type {
	case "find":
		kind := operation.Kind
		if kind == "" {
			kind = KindFirst
		}

		res, err := finder.Find(ctx, kind, operation.Params)
		result.Success = err == nil
		result.Result = res
		result.Error = err
	case "create":
		data, ok := operation.Data.(Record)
		if !ok {
			result.Error = fmt.Errorf("%w: %T", ErrInvalidDataTypeCreate, operation.Data)

			return result
		}

		res, err := finder.Create(ctx, data)
		result.Success = err == nil
		result.Result = res
		result.Error = err
	case "exists":
		id, ok := operation.Data.(string)
		if !ok {
			result.Error = fmt.Errorf("%w: %T", ErrInvalidDataTypeExists, operation.Data)

			return result
		}

		exists, err := finder.Exists(ctx, id)
		result.Success = err == nil
		result.Exists = exists
		result.Error = err
	default:
		result.Error = fmt.Errorf("%w: %s", ErrUnknownOperationType, operation.Type)
	}

	return result
}

// BatchBuilder helps build batch operations.
type BatchBuilder struct {
	operations []BatchOperation
}

// NewBatchBuilder creates a new batch builder.
func NewBatchBuilder() *BatchBuilder {
	return &BatchBuilder{
		operations: make([]BatchOperation, 0),
	}
}

// AddFind adds a find operation for the given particle.
func (b *BatchBuilder) AddFind(id, particle string, kind QueryKind, params *Params) *BatchBuilder {
	b.operations = append(b.operations, BatchOperation{
		ID:       id,
		Type:     "find",
		Particle: particle,
		Kind:     kind,
		Params:   params,
	})

	return b
}

// AddCreate adds a create operation for the given particle.
func (b *BatchBuilder) AddCreate(id, particle string, data Record) *BatchBuilder {
	b.operations = append(b.operations, BatchOperation{
		ID:       id,
		Type:     "create",
		Particle: particle,
		Data:     data,
	})

	return b
}

// AddExists adds an existence check for the given record identifier.
func (b *BatchBuilder) AddExists(id, particle, recordID string) *BatchBuilder {
	b.operations = append(b.operations, BatchOperation{
		ID:       id,
		Type:     "exists",
		Particle: particle,
		Data:     recordID,
	})

	return b
}

// AddOperation adds a custom operation.
func (b *BatchBuilder) AddOperation(operation BatchOperation) *BatchBuilder {
	b.operations = append(b.operations, operation)

	return b
}

// Build returns the built operations.
func (b *BatchBuilder) Build() []BatchOperation {
	return b.operations
}
