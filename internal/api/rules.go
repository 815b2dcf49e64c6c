package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/qarote/qarote/internal/models"

	"github.com/gin-gonic/gin"
)

func (s *Server) listRules(c *gin.Context) {
	enabled := c.Query("enabled")
	var enabledPtr *bool
	if enabled != "" {
		enabledBool := enabled == "true"
		enabledPtr = &enabledBool
	}

	rules, err := s.ruleManager.ListRules(workspaceID(c), enabledPtr)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, rules)
}

func (s *Server) getRule(c *gin.Context) {
	rule, ok := s.findRule(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (s *Server) createRule(c *gin.Context) {
	var rule models.AlertRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rule.WorkspaceID = workspaceID(c)

	if err := validateRuleFields(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.ruleManager.CreateRule(&rule); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, rule)
}

func (s *Server) updateRule(c *gin.Context) {
	existing, ok := s.findRule(c)
	if !ok {
		return
	}

	var rule models.AlertRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule.ID = existing.ID
	rule.WorkspaceID = existing.WorkspaceID

	if err := validateRuleFields(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.ruleManager.UpdateRule(&rule); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, rule)
}

func (s *Server) deleteRule(c *gin.Context) {
	rule, ok := s.findRule(c)
	if !ok {
		return
	}

	if err := s.ruleManager.DeleteRule(rule.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "rule deleted successfully"})
}

func (s *Server) enableRule(c *gin.Context) {
	rule, ok := s.findRule(c)
	if !ok {
		return
	}

	if err := s.ruleManager.EnableRule(rule.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "rule enabled successfully"})
}

func (s *Server) disableRule(c *gin.Context) {
	rule, ok := s.findRule(c)
	if !ok {
		return
	}

	if err := s.ruleManager.DisableRule(rule.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "rule disabled successfully"})
}

func (s *Server) validateRule(c *gin.Context) {
	var rule models.AlertRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := validateRuleFields(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "rule is valid"})
}

func (s *Server) importRules(c *gin.Context) {
	var rules []models.AlertRule
	if err := c.ShouldBindJSON(&rules); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for i := range rules {
		rules[i].ID = 0
		rules[i].WorkspaceID = workspaceID(c)
		if err := validateRuleFields(&rules[i]); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid rule '%s': %v", rules[i].Name, err)})
			return
		}
	}

	for i := range rules {
		if err := s.ruleManager.CreateRule(&rules[i]); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("failed to import rule '%s': %v", rules[i].Name, err)})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("successfully imported %d rules", len(rules))})
}

func (s *Server) exportRules(c *gin.Context) {
	rules, err := s.ruleManager.ListRules(workspaceID(c), nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, rules)
}

func (s *Server) findRule(c *gin.Context) (*models.AlertRule, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rule ID"})
		return nil, false
	}

	rule, err := s.ruleManager.GetRule(uint(id))
	if err != nil || rule.WorkspaceID != workspaceID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
		return nil, false
	}
	return rule, true
}

func validateRuleFields(rule *models.AlertRule) error {
	if rule.Name == "" {
		return fmt.Errorf("rule name is required")
	}

	if !isValidMetric(rule.Metric) {
		return fmt.Errorf("invalid metric: %s", rule.Metric)
	}

	if !isValidOperator(rule.Operator) {
		return fmt.Errorf("invalid operator: %s", rule.Operator)
	}

	if !isValidSeverity(rule.Severity) {
		return fmt.Errorf("invalid severity: %s", rule.Severity)
	}

	if rule.Duration <= 0 {
		return fmt.Errorf("duration must be positive")
	}

	if rule.ServerID == 0 {
		return fmt.Errorf("server_id is required")
	}

	return nil
}

func isValidMetric(metric models.Metric) bool {
	validMetrics := map[models.Metric]bool{
		models.MetricQueueDepth:        true,
		models.MetricQueueConsumers:    true,
		models.MetricUnackedMessages:   true,
		models.MetricNodeMemoryPercent: true,
		models.MetricNodeDiskFree:      true,
		models.MetricConnectionCount:   true,
	}
	return validMetrics[metric]
}

func isValidOperator(operator models.Operator) bool {
	validOperators := map[models.Operator]bool{
		models.OperatorGT:  true,
		models.OperatorLT:  true,
		models.OperatorGTE: true,
		models.OperatorLTE: true,
		models.OperatorEQ:  true,
		models.OperatorNEQ: true,
	}
	return validOperators[operator]
}

func isValidSeverity(severity models.Severity) bool {
	validSeverities := map[models.Severity]bool{
		models.SeverityInfo:     true,
		models.SeverityWarning:  true,
		models.SeverityCritical: true,
	}
	return validSeverities[severity]
}
