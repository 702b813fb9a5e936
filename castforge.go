package castforge

import _ "embed"

//go:embed config.example.toml
var ExampleConfig []byte
