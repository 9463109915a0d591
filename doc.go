// Package trainlog provides console instrumentation for iterative training
// loops: epoch/batch progress tracking, time-to-completion estimation,
// running averages, and layered per-key display configuration.
//
// A Logger instance is driven directly by the training loop. It owns all of
// its state, so independent loggers (training and validation, for example)
// can be advanced in any interleaving without coordination.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "os"
//
//	    "github.com/trainlog/trainlog"
//	    "github.com/trainlog/trainlog/config"
//	    "github.com/trainlog/trainlog/render"
//	)
//
//	func main() {
//	    opts := trainlog.DefaultOptions(10, 50)
//	    opts.Styles = config.Mapping(
//	        config.E(".* loss", "red"),
//	        config.E(".* acc", "green"),
//	    )
//	    opts.Average = config.Keys("train loss")
//
//	    logger, err := trainlog.New(opts)
//	    if err != nil {
//	        panic(err)
//	    }
//	    console := render.NewConsole(os.Stdout)
//
//	    for epoch := 0; epoch < 10; epoch++ {
//	        _ = logger.NewEpoch()
//	        for batch := 0; batch < 50; batch++ {
//	            _ = logger.NewBatch()
//	            report, _ := logger.Log(map[string]interface{}{
//	                "train loss": 0.42,
//	                "train acc":  91.3,
//	            })
//	            console.Render(report)
//	        }
//	    }
//	}
//
// Display attributes (style, width, averaging membership) resolve per key on
// every Log call through five layers of precedence: log-call scalar, log-call
// mapping match, default scalar, default mapping match, built-in default.
// Mapping patterns double as exact keys and regular expressions; among regex
// matches the last declared pattern wins.
//
// The core computes values and progress only. Painting styled text, cursor
// management, and style-token validation live in the render package, which
// consumes the Report rows this package produces.
package trainlog
