package chatgw

// Built-in plugins register their factories on import.
import (
	_ "github.com/blueember/storefront-chat/internal/plugins/localresponder"
	_ "github.com/blueember/storefront-chat/internal/plugins/logger"
	_ "github.com/blueember/storefront-chat/internal/plugins/maxlength"
	_ "github.com/blueember/storefront-chat/internal/plugins/wordfilter"
)
