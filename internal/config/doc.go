// Package config handles configuration loading for the gradient chat client.
//
// # Configuration File
//
// Locations (first match wins):
//
//  1. --config flag
//  2. Path from GRADIENT_CONFIG environment variable
//  3. ~/.config/gradient/client.yaml ($XDG_CONFIG_HOME respected)
//
// A missing file at the last location is not an error; defaults apply.
// Files ending in .toml are TOML, anything else YAML.
//
// # Environment Variable Expansion
//
//	auth:
//	  token: "${GRADIENT_TOKEN}"
//
// # Configuration Sections
//
//	backend:
//	  base_url: "https://chat.example.com/api"
//	  timeout: "60s"          # non-streaming requests only
//
//	auth:
//	  token: ""               # wins when set
//	  token_env: "GRADIENT_TOKEN"
//	  token_file: "~/.config/gradient/token"
//
//	session:
//	  path: "~/.local/state/gradient/client.db"
//	  default_title: "New chat"
//
//	stream:
//	  sentinel: "[DONE]"
//	  trim: false             # trim every delta fully
//	  read_buffer: 4096
//
//	logging:
//	  level: "warn"           # debug, info, warn, error
//	  format: "text"          # text or json
//
//	render:
//	  style: "auto"           # glamour style: auto, dark, light, notty
//	  word_wrap: 100
package config
