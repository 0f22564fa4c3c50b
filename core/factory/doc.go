// Package factory is a small generic registry that builds pluggable modules
// (metrics sinks, history stores, schedule publishers) from configuration.
// A module is described by a type name and a map of raw settings which the
// registered factory decodes with Decode.
//
//	reg := factory.NewRegistry[io.Writer]()
//	reg.Register("file", func(conf map[string]any) (io.Writer, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return os.Create(c.Path)
//	})
package factory
