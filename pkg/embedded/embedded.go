package embedded

import (
	_ "embed"
)

// Example gallery shown under the generation form
//
//go:embed data/examples/examples.json
var ExamplesJSON []byte

// Page assets
//
//go:embed data/static/styles.css
var StylesCSS []byte

//go:embed data/static/app.js
var AppJS []byte
