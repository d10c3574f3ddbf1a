package enhance

import "go.uber.org/fx"

// Module provides the enhancement pipeline. It expects an enhance.Config in
// the graph, normally supplied by the config module.
var Module = fx.Module("enhance",
	fx.Provide(NewPipeline),
)
