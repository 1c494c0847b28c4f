// Package factory provides a small generic registry used to build pluggable
// modules, such as metrics sinks and line data sources, from configuration.
// A module is described by a type string and a map of raw settings; the
// registered factory decodes the settings into a typed struct and returns the
// concrete implementation.
//
// Example usage:
//
//	reg := factory.NewRegistry[io.Reader]()
//	reg.Register("file", func(conf map[string]any) (io.Reader, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return os.Open(c.Path)
//	})
//	r, err := reg.Create(factory.ModuleConfig{Type: "file", Conf: map[string]any{"path": "lines.csv"}})
package factory
