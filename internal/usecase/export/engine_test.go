package export

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/varsearch/internal/domain"
	domexport "github.com/kailas-cloud/varsearch/internal/domain/export"
	"github.com/kailas-cloud/varsearch/internal/domain/search/request"
)

// --- Mocks ---

type result struct {
	d   domexport.Download
	err error
}

// mockExporter answers each call from a queue per format. A call blocks
// until the test pushes its result.
type mockExporter struct {
	mu      sync.Mutex
	queues  map[domexport.Format]chan result
	started chan domexport.Format
}

func newMockExporter() *mockExporter {
	return &mockExporter{
		queues:  make(map[domexport.Format]chan result),
		started: make(chan domexport.Format, 16),
	}
}

func (m *mockExporter) queue(f domexport.Format) chan result {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[f]
	if !ok {
		q = make(chan result, 4)
		m.queues[f] = q
	}
	return q
}

func (m *mockExporter) Export(ctx context.Context, req request.Export) (domexport.Download, error) {
	m.started <- req.Format()
	select {
	case r := <-m.queue(req.Format()):
		return r.d, r.err
	case <-ctx.Done():
		return domexport.Download{}, ctx.Err()
	}
}

func makeExport(t *testing.T, f domexport.Format) request.Export {
	t.Helper()
	req, err := request.NewExport("", nil, f)
	if err != nil {
		t.Fatalf("NewExport: %v", err)
	}
	return req
}

func awaitStart(t *testing.T, m *mockExporter) domexport.Format {
	t.Helper()
	select {
	case f := <-m.started:
		return f
	case <-time.After(5 * time.Second):
		t.Fatal("export did not start")
		return ""
	}
}

type outcome struct {
	d   domexport.Download
	err error
}

func runExport(e *Engine, req request.Export) <-chan outcome {
	ch := make(chan outcome, 1)
	go func() {
		d, err := e.Export(context.Background(), req)
		ch <- outcome{d, err}
	}()
	return ch
}

// --- Tests ---

func TestExport_Success(t *testing.T) {
	api := newMockExporter()
	e := New(api, nil, nil)

	api.queue(domexport.CSV) <- result{d: domexport.Download{
		Format: domexport.CSV, Filename: "codex-export.csv", Data: []byte("id\n1\n"),
	}}
	d, err := e.Export(context.Background(), makeExport(t, domexport.CSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Filename != "codex-export.csv" || string(d.Data) != "id\n1\n" {
		t.Errorf("download = %+v", d)
	}
	if e.Pending(domexport.CSV) {
		t.Error("CSV still pending after completion")
	}
}

func TestExport_XLSXDiskFull(t *testing.T) {
	api := newMockExporter()
	e := New(api, nil, nil)

	api.queue(domexport.XLSX) <- result{err: errors.New("disk full")}
	d, err := e.Export(context.Background(), makeExport(t, domexport.XLSX))

	var ef *domain.ExportFailedError
	if !errors.As(err, &ef) {
		t.Fatalf("err = %v, want *ExportFailedError", err)
	}
	if ef.Message != "disk full" || ef.Format != "xlsx" {
		t.Errorf("ExportFailed = %+v", ef)
	}
	if !errors.Is(err, domain.ErrExportFailed) {
		t.Error("expected ErrExportFailed in chain")
	}
	if d.Data != nil || d.Filename != "" {
		t.Errorf("failed export returned a payload: %+v", d)
	}
}

func TestExport_FormatsAreIndependent(t *testing.T) {
	api := newMockExporter()
	e := New(api, nil, nil)

	csv := runExport(e, makeExport(t, domexport.CSV))
	awaitStart(t, api)
	xlsx := runExport(e, makeExport(t, domexport.XLSX))
	awaitStart(t, api)

	if !e.Pending(domexport.CSV) || !e.Pending(domexport.XLSX) {
		t.Fatal("both formats should be pending")
	}
	if got := e.PendingFormats(); len(got) != 2 {
		t.Errorf("PendingFormats() = %v", got)
	}

	api.queue(domexport.XLSX) <- result{d: domexport.Download{Format: domexport.XLSX, Data: []byte("x")}}
	if o := <-xlsx; o.err != nil {
		t.Fatalf("xlsx: %v", o.err)
	}
	if !e.Pending(domexport.CSV) {
		t.Error("finishing XLSX must not affect CSV")
	}

	api.queue(domexport.CSV) <- result{d: domexport.Download{Format: domexport.CSV, Data: []byte("c")}}
	if o := <-csv; o.err != nil || string(o.d.Data) != "c" {
		t.Fatalf("csv: %+v", o)
	}
}

func TestExport_NewerSupersedesOlder(t *testing.T) {
	api := newMockExporter()
	e := New(api, nil, nil)

	first := runExport(e, makeExport(t, domexport.CSV))
	awaitStart(t, api)
	second := runExport(e, makeExport(t, domexport.CSV))
	awaitStart(t, api)

	api.queue(domexport.CSV) <- result{d: domexport.Download{Data: []byte("one")}}
	api.queue(domexport.CSV) <- result{d: domexport.Download{Data: []byte("two")}}

	outcomes := []outcome{<-first, <-second}
	var superseded, ok int
	for _, o := range outcomes {
		switch {
		case errors.Is(o.err, domain.ErrSuperseded):
			superseded++
		case o.err == nil:
			ok++
		}
	}
	if superseded != 1 || ok != 1 {
		t.Errorf("superseded = %d, ok = %d; want 1 and 1", superseded, ok)
	}
	if o := outcomes[0]; !errors.Is(o.err, domain.ErrSuperseded) {
		t.Errorf("older export should be superseded, got %+v", o)
	}
	if e.Pending(domexport.CSV) {
		t.Error("CSV still pending")
	}
}

func TestExport_UnsupportedFormat(t *testing.T) {
	e := New(newMockExporter(), nil, nil)
	_, err := e.Export(context.Background(), request.Export{})
	if !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}
