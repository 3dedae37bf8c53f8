package service

import "github.com/hashicorp/go-metrics"

var (
	MetricBeanBindCount             = []string{"myremoting", "bean", "bind", "count"}
	MetricBeanBindErrorCount        = []string{"myremoting", "bean", "bind", "error", "count"}
	MetricBeanBrokenCount           = []string{"myremoting", "bean", "broken", "count"}
	MetricRegistryPublishCount      = []string{"myremoting", "registry", "publish", "count"}
	MetricRegistryRenewErrorCount   = []string{"myremoting", "registry", "renew", "error", "count"}
	MetricRegistryRepublishCount    = []string{"myremoting", "registry", "republish", "count"}
	MetricRegistryEntriesReaped     = []string{"myremoting", "registry", "entries", "reaped"}
	MetricRemotingFailureCount      = []string{"myremoting", "remoting", "failure", "count"}
	MetricRemotingPartitionCallsOut = []string{"myremoting", "remoting", "partition", "calls", "out"}
)

// MetricLabel names a label attached to emitted metrics.
type MetricLabel string

var (
	LabelBean    MetricLabel = "bean"
	LabelCommand MetricLabel = "command"
	LabelError   MetricLabel = "error"
	LabelService MetricLabel = "service"
)

// M builds a go-metrics label.
func (lab MetricLabel) M(val string) metrics.Label {
	return metrics.Label{Name: string(lab), Value: val}
}

// sinkOrBlackhole keeps constructors tolerant of an unset sink.
func sinkOrBlackhole(sink metrics.MetricSink) metrics.MetricSink {
	if sink == nil {
		return &metrics.BlackholeSink{}
	}
	return sink
}
