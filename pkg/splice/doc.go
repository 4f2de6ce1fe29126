// Package splice blends registered gene pools into an output rig.
//
// A SpliceData holds the base archetype and the registered pools together
// with their region weights, filters and scale. A GeneSplicer runs the
// splice passes over it and writes the result through a rig.Writer:
//
//	data := splice.NewSpliceData()
//	data.SetBaseArchetype(archetype)
//	if _, err := data.RegisterGenePool("face", regions, pool); err != nil {
//		return err
//	}
//	data.SetSpliceWeights("face", 0, weights)
//
//	out := rig.Clone(archetype)
//	err := splice.NewGeneSplicer(block.Auto).Splice(data, out)
//
// Every pass starts from the archetype and adds the weighted deltas of all
// pools, so the result does not depend on registration order.
package splice
