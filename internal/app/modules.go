package app

import (
	"github.com/vk/nodegraph/internal/registry"
	"github.com/vk/nodegraph/modules/debuglog"
	"github.com/vk/nodegraph/modules/env_vars"
	"github.com/vk/nodegraph/modules/exec"
	"github.com/vk/nodegraph/modules/http_client"
	"github.com/vk/nodegraph/modules/math"
	"github.com/vk/nodegraph/modules/vars"
)

// coreModules is the definitive list of all node modules compiled into the
// nodegraph binary.
var coreModules = []registry.Module{
	&exec.Module{},
	&debuglog.Module{},
	&math.Module{},
	&vars.Module{},
	&env_vars.Module{},
	&http_client.Module{},
}
