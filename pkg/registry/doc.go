// Package registry maps target identifiers to constructible component
// factories and instantiates resolved configuration trees into runtime
// objects.
//
// A configuration node that carries the "_target_" key names a constructible.
// Build walks a resolved tree depth-first: target-bearing children and
// sequence elements are instantiated first (sequences element-wise, order
// preserved), then the node itself is built by handing its remaining sibling
// keys to the registered factory.
//
// Factories receive their arguments as an Args value and typically decode
// them into a validated spec struct:
//
//	registry.Register("torch.optim.AdamW", func(ctx context.Context, args registry.Args) (any, error) {
//	    var spec AdamWSpec
//	    if err := args.Decode(&spec); err != nil {
//	        return nil, err
//	    }
//	    return &spec, nil
//	})
//
// An unknown target identifier, a sibling key the factory's spec does not
// declare, or a constructor failure surfaces as an *InstantiationError
// carrying the offending path. Instantiation errors are fatal; there are no
// retries.
package registry
