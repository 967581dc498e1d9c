// Package backend provides the runners that execute an assembled
// experiment.
//
// A runner receives a fully assembled experiment.Experiment and carries
// it to completion. The package ships two runners: dryrun walks the
// configured epoch budget without touching any training framework, and
// exec serializes the experiment manifest to disk and hands it to an
// external trainer process. Runners are selected by name through Open,
// which the train command wires to its --backend flag.
package backend
