package experiment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segtrain/segtrain/pkg/config"
	"github.com/segtrain/segtrain/pkg/registry"
)

// Experiment is a fully assembled training experiment: the resolved document
// plus the instantiated component of every group.
type Experiment struct {
	// Root is the resolved configuration tree the experiment was
	// assembled from.
	Root config.Node

	PLModel      Model
	Model        Model
	Optimizer    Optimizer
	Device       Device
	Metrics      []Metric
	Hyper        Hyperparameters
	Trainer      Trainer
	TrainDataset Dataset
	ValDataset   Dataset
}

// Assemble resolves a document tree and instantiates its groups. The
// returned experiment is ready to hand to a Runner.
//
// model, optimizer, hyperparameters, pl_trainer and train_dataset are
// required; pl_model, device, metrics and val_dataset are optional.
func Assemble(ctx context.Context, root config.Node, reg *registry.Registry) (*Experiment, error) {
	resolved, err := config.Resolve(root)
	if err != nil {
		return nil, err
	}

	exp := &Experiment{Root: resolved}

	exp.Model, err = buildAs[Model](ctx, reg, resolved, "model", "model", true)
	if err != nil {
		return nil, err
	}
	exp.PLModel, err = buildAs[Model](ctx, reg, resolved, "pl_model", "model", false)
	if err != nil {
		return nil, err
	}
	exp.Optimizer, err = buildAs[Optimizer](ctx, reg, resolved, "optimizer", "optimizer", true)
	if err != nil {
		return nil, err
	}
	exp.Trainer, err = buildAs[Trainer](ctx, reg, resolved, "pl_trainer", "trainer", true)
	if err != nil {
		return nil, err
	}
	exp.TrainDataset, err = buildAs[Dataset](ctx, reg, resolved, "train_dataset", "dataset", true)
	if err != nil {
		return nil, err
	}
	exp.ValDataset, err = buildAs[Dataset](ctx, reg, resolved, "val_dataset", "dataset", false)
	if err != nil {
		return nil, err
	}

	hyperNode, err := resolved.Sub("hyperparameters")
	if err != nil {
		return nil, err
	}
	if err := registry.NewArgs(hyperNode).Decode(&exp.Hyper); err != nil {
		return nil, fmt.Errorf("hyperparameters: %w", err)
	}

	deviceVal, _ := resolved.Lookup("device")
	exp.Device, err = ParseDevice(deviceVal)
	if err != nil {
		return nil, fmt.Errorf("device: %w", err)
	}

	exp.Metrics, err = buildMetrics(ctx, reg, resolved)
	if err != nil {
		return nil, err
	}

	return exp, nil
}

// buildAs instantiates the group at path and checks it against the component
// contract T. Optional groups yield the zero T when absent.
func buildAs[T Component](ctx context.Context, reg *registry.Registry, root config.Node, path, contract string, required bool) (T, error) {
	var zero T

	if _, ok := root.Lookup(path); !ok {
		if required {
			return zero, fmt.Errorf("required group %q not found", path)
		}
		return zero, nil
	}

	obj, err := reg.BuildNode(ctx, root, path)
	if err != nil {
		return zero, err
	}
	c, ok := obj.(T)
	if !ok {
		return zero, fmt.Errorf("group %q: %T does not satisfy the %s contract", path, obj, contract)
	}
	return c, nil
}

func buildMetrics(ctx context.Context, reg *registry.Registry, root config.Node) ([]Metric, error) {
	raw, ok := root.Lookup("metrics")
	if !ok {
		return nil, nil
	}
	seq, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("metrics group must be a sequence (got %T)", raw)
	}

	built, err := reg.BuildNode(ctx, root, "metrics")
	if err != nil {
		return nil, err
	}

	out := make([]Metric, len(seq))
	for i, v := range built.([]any) {
		m, ok := v.(Metric)
		if !ok {
			return nil, fmt.Errorf("metrics.%d: %T does not satisfy the metric contract", i, v)
		}
		out[i] = m
	}
	return out, nil
}

// Manifest renders the experiment for the external backend: the resolved
// tree plus a description of each instantiated component.
func (e *Experiment) Manifest() ([]byte, error) {
	components := map[string]string{
		"model":         e.Model.Describe(),
		"optimizer":     e.Optimizer.Describe(),
		"pl_trainer":    e.Trainer.Describe(),
		"train_dataset": e.TrainDataset.Describe(),
		"device":        e.Device.String(),
	}
	if e.PLModel != nil {
		components["pl_model"] = e.PLModel.Describe()
	}
	if e.ValDataset != nil {
		components["val_dataset"] = e.ValDataset.Describe()
	}
	for i, m := range e.Metrics {
		components[fmt.Sprintf("metrics.%d", i)] = m.Describe()
	}

	return json.MarshalIndent(struct {
		Config     config.Node       `json:"config"`
		Components map[string]string `json:"components"`
	}{
		Config:     e.Root,
		Components: components,
	}, "", "  ")
}
