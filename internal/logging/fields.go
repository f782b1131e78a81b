package logging

import (
	"time"

	"github.com/sirupsen/logrus"
)

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// RequestFields 描述一次 CDN 请求：包名、版本说明符、文件路径与最终解析出的版本。
func RequestFields(pkg, spec, file, resolved string) logrus.Fields {
	return logrus.Fields{
		"package":  pkg,
		"spec":     spec,
		"file":     file,
		"resolved": resolved,
	}
}

// UpstreamFields 描述一次回源调用。
func UpstreamFields(kind, url string, status int, elapsed time.Duration) logrus.Fields {
	return logrus.Fields{
		"upstream":   kind,
		"url":        url,
		"status":     status,
		"elapsed_ms": elapsed.Milliseconds(),
	}
}
