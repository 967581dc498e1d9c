package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/segtrain/segtrain/pkg/config"
	"github.com/segtrain/segtrain/pkg/telemetry"
)

func TestRegistry_Register(t *testing.T) {
	r := New()
	noop := func(ctx context.Context, args Args) (any, error) { return nil, nil }

	if err := r.Register("a.B", noop); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register("a.B", noop); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	if !r.Has("a.B") {
		t.Error("expected target to be registered")
	}
	if got := r.Targets(); !reflect.DeepEqual(got, []string{"a.B"}) {
		t.Errorf("unexpected targets: %v", got)
	}
}

func TestRegistry_BuildPassesSiblingKeys(t *testing.T) {
	r := New()

	var gotKeys []string
	r.MustRegister("test.Component", func(ctx context.Context, args Args) (any, error) {
		gotKeys = args.Keys()
		return "built", nil
	})

	node := config.Node{
		TargetKey: "test.Component",
		"width":   256,
		"height":  256,
		"p":       0.5,
	}

	obj, err := r.Build(context.Background(), node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj != "built" {
		t.Errorf("expected factory result, got %v", obj)
	}
	want := []string{"height", "p", "width"}
	if !reflect.DeepEqual(gotKeys, want) {
		t.Errorf("expected exactly sibling keys %v, got %v", want, gotKeys)
	}
}

func TestRegistry_BuildNestedTargetsFirst(t *testing.T) {
	r := New()

	type inner struct{ name string }
	r.MustRegister("test.Inner", func(ctx context.Context, args Args) (any, error) {
		name, _ := args.Get("name")
		return &inner{name: name.(string)}, nil
	})

	var gotInner any
	r.MustRegister("test.Outer", func(ctx context.Context, args Args) (any, error) {
		gotInner, _ = args.Get("child")
		return "outer", nil
	})

	node := config.Node{
		TargetKey: "test.Outer",
		"child": config.Node{
			TargetKey: "test.Inner",
			"name":    "nested",
		},
	}

	if _, err := r.Build(context.Background(), node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in, ok := gotInner.(*inner)
	if !ok {
		t.Fatalf("parent factory did not receive instantiated child, got %T", gotInner)
	}
	if in.name != "nested" {
		t.Errorf("expected nested child, got %q", in.name)
	}
}

func TestRegistry_BuildSequencePreservesOrder(t *testing.T) {
	r := New()
	r.MustRegister("test.Transform", func(ctx context.Context, args Args) (any, error) {
		name, _ := args.Get("name")
		return fmt.Sprintf("transform:%v", name), nil
	})

	seq := []any{
		config.Node{TargetKey: "test.Transform", "name": "crop"},
		config.Node{TargetKey: "test.Transform", "name": "flip"},
		config.Node{TargetKey: "test.Transform", "name": "normalize"},
	}

	built, err := r.Build(context.Background(), seq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, ok := built.([]any)
	if !ok {
		t.Fatalf("expected sequence, got %T", built)
	}
	want := []any{"transform:crop", "transform:flip", "transform:normalize"}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("expected %v, got %v", want, out)
	}
}

func TestRegistry_BuildErrors(t *testing.T) {
	r := New()
	r.MustRegister("test.Broken", func(ctx context.Context, args Args) (any, error) {
		return nil, errors.New("boom")
	})

	tests := []struct {
		name     string
		value    any
		errIs    error
		wantPath string
	}{
		{
			name: "unknown target",
			value: config.Node{
				"model": config.Node{TargetKey: "test.Missing"},
			},
			errIs:    ErrUnknownTarget,
			wantPath: "model",
		},
		{
			name: "factory failure",
			value: config.Node{
				"model": config.Node{TargetKey: "test.Broken"},
			},
			wantPath: "model",
		},
		{
			name: "non-string target key",
			value: config.Node{
				"model": config.Node{TargetKey: 42},
			},
			wantPath: "model",
		},
		{
			name: "failure inside sequence",
			value: config.Node{
				"metrics": []any{config.Node{TargetKey: "test.Missing"}},
			},
			errIs:    ErrUnknownTarget,
			wantPath: "metrics.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Build(context.Background(), tt.value)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var ierr *InstantiationError
			if !errors.As(err, &ierr) {
				t.Fatalf("expected *InstantiationError, got %T: %v", err, err)
			}
			if tt.errIs != nil && !errors.Is(err, tt.errIs) {
				t.Errorf("expected error to wrap %v, got %v", tt.errIs, err)
			}
			if ierr.Path != tt.wantPath {
				t.Errorf("expected path %q, got %q", tt.wantPath, ierr.Path)
			}
		})
	}
}

func TestRegistry_BuildPlainNodePassesThrough(t *testing.T) {
	r := New()
	node := config.Node{
		"epochs": 5,
		"loader": config.Node{"batch_size": 8},
	}

	built, err := r.Build(context.Background(), node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, ok := built.(config.Node)
	if !ok {
		t.Fatalf("expected node, got %T", built)
	}
	if out["epochs"] != 5 {
		t.Errorf("expected scalar to pass through, got %v", out["epochs"])
	}
}

func TestRegistry_BuildRecordsTargetMetrics(t *testing.T) {
	cfg := telemetry.DefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Logging.Level = "error"
	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := tel.WithContext(context.Background())

	r := New()
	r.MustRegister("test.Component", func(ctx context.Context, args Args) (any, error) {
		return "built", nil
	})

	if _, err := r.Build(ctx, config.Node{TargetKey: "test.Component"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Build(ctx, config.Node{TargetKey: "test.Missing"}); err == nil {
		t.Fatal("expected unknown target error")
	}

	rec := httptest.NewRecorder()
	tel.Metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{
		`segtrain_targets_built_total{status="ok",target="test.Component"} 1`,
		`segtrain_targets_built_total{status="error",target="test.Missing"} 1`,
		`segtrain_instantiation_errors_total{target="test.Missing"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
