package server

func (s *Server) countDocumentEvent(entityType, action string) {
	if s.metrics == nil {
		return
	}
	s.metrics.DocumentEvents.WithLabelValues(entityType, action).Inc()
}

func (s *Server) countEmailDelivery(entityType string, success bool) {
	if s.metrics == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	s.metrics.EmailDeliveries.WithLabelValues(entityType, outcome).Inc()
}

func (s *Server) countShareView(entityType string) {
	if s.metrics == nil {
		return
	}
	s.metrics.ShareViews.WithLabelValues(entityType).Inc()
}
