package hal_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fivetwenty-io/hal-client/pkg/hal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClient implements hal.Client for testing.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Model(particle string) hal.Finder {
	args := m.Called(particle)
	if args.Get(0) == nil {
		return nil
	}

	return args.Get(0).(hal.Finder)
}

// stubFinder implements hal.Finder with canned responses and detects
// overlapping calls against the same instance.
type stubFinder struct {
	particle   string
	existingID string

	mu         sync.Mutex
	inFlight   int
	overlapped bool
	calls      []string
}

func (f *stubFinder) enter(call string) {
	f.mu.Lock()

	f.inFlight++
	if f.inFlight > 1 {
		f.overlapped = true
	}

	f.calls = append(f.calls, call)
	f.mu.Unlock()

	// Widen the window so overlapping goroutines would collide.
	time.Sleep(5 * time.Millisecond)
}

func (f *stubFinder) exit() {
	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
}

func (f *stubFinder) Particle() string { return f.particle }

func (f *stubFinder) Find(_ context.Context, kind hal.QueryKind, _ *hal.Params) (*hal.Result, error) {
	f.enter("find")
	defer f.exit()

	return &hal.Result{Kind: kind, Record: hal.Record{"particle": f.particle}}, nil
}

func (f *stubFinder) FindAll(_ context.Context, _ *hal.Params) (*hal.Result, error) {
	f.enter("findall")
	defer f.exit()

	return &hal.Result{Kind: hal.KindAll}, nil
}

func (f *stubFinder) Exists(_ context.Context, id string) (bool, error) {
	f.enter("exists")
	defer f.exit()

	return id == f.existingID, nil
}

func (f *stubFinder) Create(_ context.Context, data hal.Record) (*hal.Result, error) {
	f.enter("create")
	defer f.exit()

	return &hal.Result{Kind: hal.KindRaw, Record: data}, nil
}

func (f *stubFinder) FindNext(_ context.Context) (*hal.Result, error)     { return nil, nil }
func (f *stubFinder) FindPrevious(_ context.Context) (*hal.Result, error) { return nil, nil }
func (f *stubFinder) FindLast(_ context.Context) (*hal.Result, error)     { return nil, nil }
func (f *stubFinder) FindCount(_ context.Context) (int, bool)             { return 0, false }

func TestBatchExecutor_Execute(t *testing.T) {
	books := &stubFinder{particle: "books", existingID: "42"}
	authors := &stubFinder{particle: "authors"}

	client := &MockClient{}
	client.On("Model", "books").Return(books)
	client.On("Model", "authors").Return(authors)

	executor := hal.NewBatchExecutor(client, 2)

	var callbackIDs []string

	var callbackMu sync.Mutex

	operations := hal.NewBatchBuilder().
		AddFind("op-1", "books", hal.KindFirst, hal.NewParams().WithFilter("title", "Moby Dick")).
		AddCreate("op-2", "authors", hal.Record{"name": "Melville"}).
		AddExists("op-3", "books", "42").
		AddOperation(hal.BatchOperation{
			ID:       "op-4",
			Type:     "exists",
			Particle: "books",
			Data:     "missing",
			Callback: func(result *hal.BatchResult) {
				callbackMu.Lock()
				callbackIDs = append(callbackIDs, result.ID)
				callbackMu.Unlock()
			},
		}).
		Build()

	results, err := executor.Execute(context.Background(), operations)
	require.NoError(t, err)
	require.Len(t, results, 4)

	// Results come back in submission order regardless of grouping.
	assert.Equal(t, "op-1", results[0].ID)
	assert.True(t, results[0].Success)
	require.NotNil(t, results[0].Result)
	assert.Equal(t, "books", results[0].Result.Record["particle"])

	assert.Equal(t, "op-2", results[1].ID)
	assert.True(t, results[1].Success)
	assert.Equal(t, "Melville", results[1].Result.Record["name"])

	assert.Equal(t, "op-3", results[2].ID)
	assert.True(t, results[2].Success)
	assert.True(t, results[2].Exists)

	assert.Equal(t, "op-4", results[3].ID)
	assert.True(t, results[3].Success)
	assert.False(t, results[3].Exists)

	// Every result carries a duration and the callback fired.
	for _, result := range results {
		assert.Positive(t, result.Duration)
	}

	assert.Equal(t, []string{"op-4"}, callbackIDs)
}

func TestBatchExecutor_SequentialWithinParticle(t *testing.T) {
	books := &stubFinder{particle: "books"}
	authors := &stubFinder{particle: "authors"}

	client := &MockClient{}
	client.On("Model", "books").Return(books)
	client.On("Model", "authors").Return(authors)

	executor := hal.NewBatchExecutor(client, 4)

	builder := hal.NewBatchBuilder()
	for _, id := range []string{"b-1", "b-2", "b-3"} {
		builder.AddFind(id, "books", hal.KindFirst, nil)
	}

	for _, id := range []string{"a-1", "a-2", "a-3"} {
		builder.AddFind(id, "authors", hal.KindFirst, nil)
	}

	results, err := executor.Execute(context.Background(), builder.Build())
	require.NoError(t, err)
	require.Len(t, results, 6)

	// Operations against one particle share a cursor and must not
	// interleave.
	assert.False(t, books.overlapped)
	assert.False(t, authors.overlapped)
	assert.Len(t, books.calls, 3)
	assert.Len(t, authors.calls, 3)
}

func TestBatchExecutor_UnknownOperationType(t *testing.T) {
	books := &stubFinder{particle: "books"}

	client := &MockClient{}
	client.On("Model", "books").Return(books)

	executor := hal.NewBatchExecutor(client, 1)

	results, err := executor.Execute(context.Background(), []hal.BatchOperation{
		{ID: "op-1", Type: "delete", Particle: "books"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.False(t, results[0].Success)
	require.Error(t, results[0].Error)
	assert.ErrorIs(t, results[0].Error, hal.ErrUnknownOperationType)
}

func TestBatchExecutor_InvalidData(t *testing.T) {
	books := &stubFinder{particle: "books"}

	client := &MockClient{}
	client.On("Model", "books").Return(books)

	executor := hal.NewBatchExecutor(client, 1)

	results, err := executor.Execute(context.Background(), []hal.BatchOperation{
		{ID: "op-1", Type: "create", Particle: "books", Data: "not a record"},
		{ID: "op-2", Type: "exists", Particle: "books", Data: 42},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.ErrorIs(t, results[0].Error, hal.ErrInvalidDataTypeCreate)
	assert.ErrorIs(t, results[1].Error, hal.ErrInvalidDataTypeExists)
}

func TestBatchExecutor_DefaultKind(t *testing.T) {
	books := &stubFinder{particle: "books"}

	client := &MockClient{}
	client.On("Model", "books").Return(books)

	executor := hal.NewBatchExecutor(client, 1)

	// A find without an explicit kind targets the first match.
	results, err := executor.Execute(context.Background(), []hal.BatchOperation{
		{ID: "op-1", Type: "find", Particle: "books"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.True(t, results[0].Success)
	assert.Equal(t, hal.KindFirst, results[0].Result.Kind)
}

func TestNewBatchExecutor_ConcurrencyFloor(t *testing.T) {
	client := &MockClient{}

	executor := hal.NewBatchExecutor(client, 0)

	require.NotNil(t, executor)

	// No operations still yields an empty result set.
	results, err := executor.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBatchBuilder(t *testing.T) {
	operations := hal.NewBatchBuilder().
		AddFind("op-1", "books", hal.KindAll, hal.NewParams().WithCount(10)).
		AddCreate("op-2", "books", hal.Record{"title": "Omoo"}).
		AddExists("op-3", "authors", "7").
		Build()

	require.Len(t, operations, 3)

	assert.Equal(t, "find", operations[0].Type)
	assert.Equal(t, hal.KindAll, operations[0].Kind)
	assert.Equal(t, "books", operations[0].Particle)

	assert.Equal(t, "create", operations[1].Type)

	record, ok := operations[1].Data.(hal.Record)
	require.True(t, ok)
	assert.Equal(t, "Omoo", record["title"])

	assert.Equal(t, "exists", operations[2].Type)
	assert.Equal(t, "7", operations[2].Data)
}
