package metrics

const (
	ControllerDecisionsH        = "The total number of traffic signal decisions computed"
	ControllerDecisionsN        = "trafficctl_controller_decisions"
	ControllerErrorsH           = "The total number of failed traffic signal decisions by reason"
	ControllerErrorsN           = "trafficctl_controller_errors"
	ControllerLatencyH          = "Time taken to compute a traffic signal decision in seconds"
	ControllerLatencyN          = "trafficctl_controller_latency_seconds"
	ControllerGreenLightH       = "Computed green light durations in seconds"
	ControllerGreenLightN       = "trafficctl_controller_green_light_seconds"
	ControllerErrorsReasonLabel = "reason"

	IPServerPktsReceivedH = "The total number of packets received via IP"
	IPServerPktsReceivedN = "trafficctl_ip_server_pkts_received"
	IPServerReqsAcceptedH = "The total number of requests accepted via IP"
	IPServerReqsAcceptedN = "trafficctl_ip_server_reqs_accepted"
	IPServerReqsServedH   = "The total number of requests served via IP"
	IPServerReqsServedN   = "trafficctl_ip_server_reqs_served"
	IPServerReqsFailedH   = "The total number of requests answered with an error status via IP"
	IPServerReqsFailedN   = "trafficctl_ip_server_reqs_failed"

	QUICServerConnsAcceptedH = "The total number of connections accepted via QUIC"
	QUICServerConnsAcceptedN = "trafficctl_quic_server_conns_accepted"
	QUICServerReqsAcceptedH  = "The total number of requests accepted via QUIC"
	QUICServerReqsAcceptedN  = "trafficctl_quic_server_reqs_accepted"
	QUICServerReqsServedH    = "The total number of requests served via QUIC"
	QUICServerReqsServedN    = "trafficctl_quic_server_reqs_served"
	QUICServerReqsFailedH    = "The total number of requests answered with an error status via QUIC"
	QUICServerReqsFailedN    = "trafficctl_quic_server_reqs_failed"

	ServerStatusLabel = "status"

	IPClientReqsSentH      = "The total number of requests sent via IP"
	IPClientReqsSentN      = "trafficctl_ip_client_reqs_sent"
	IPClientPktsReceivedH  = "The total number of packets received via IP"
	IPClientPktsReceivedN  = "trafficctl_ip_client_pkts_received"
	IPClientRespsAcceptedH = "The total number of responses accepted via IP"
	IPClientRespsAcceptedN = "trafficctl_ip_client_resps_accepted"

	QUICClientReqsSentH      = "The total number of requests sent via QUIC"
	QUICClientReqsSentN      = "trafficctl_quic_client_reqs_sent"
	QUICClientRespsAcceptedH = "The total number of responses accepted via QUIC"
	QUICClientRespsAcceptedN = "trafficctl_quic_client_resps_accepted"
)
