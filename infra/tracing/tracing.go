package tracing

import (
	"io"
	"periodico/misc"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/sirupsen/logrus"
	jaegercfg "github.com/uber/jaeger-client-go/config"
)

// Bootstrap installs a jaeger tracer configured from the standard JAEGER_*
// environment variables as the opentracing global tracer. When no agent is
// configured the noop tracer stays in place.
func Bootstrap() io.Closer {
	cfg, err := jaegercfg.FromEnv()
	if err != nil {
		logrus.Warnf("tracing disabled, invalid jaeger config: %v", err)
		return nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = misc.GetServiceName()
	}
	closer, err := cfg.InitGlobalTracer(cfg.ServiceName)
	if err != nil {
		logrus.Warnf("tracing disabled, jaeger tracer init failed: %v", err)
		return nil
	}
	return closer
}

func TracingIngress() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tracer := opentracing.GlobalTracer()
		spanCtx, _ := tracer.Extract(opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(ctx.Request.Header))
		serverSpan := tracer.StartSpan(ctx.Request.Method+" "+ctx.Request.RequestURI, ext.RPCServerOption(spanCtx))
		defer serverSpan.Finish()

		ctx.Request = ctx.Request.WithContext(opentracing.ContextWithSpan(ctx.Request.Context(), serverSpan))

		ctx.Next()
	}
}
