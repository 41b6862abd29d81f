package outbox

import (
	"strings"

	"github.com/google/uuid"
)

// TopicProjects carries every project change.
const TopicProjects = "projects"

const (
	ownerTopicPrefix   = "projects.owner."
	projectTopicPrefix = "projects."
	walletTopicPrefix  = "wallets."
)

// OwnerTopic carries changes to the projects of one generator.
func OwnerTopic(userID uuid.UUID) string { return ownerTopicPrefix + userID.String() }

// ProjectTopic carries changes to one project.
func ProjectTopic(projectID uuid.UUID) string { return projectTopicPrefix + projectID.String() }

// WalletTopic carries ledger changes of one wallet.
func WalletTopic(walletID uuid.UUID) string { return walletTopicPrefix + walletID.String() }

// ProjectTopics lists every topic a project change is published on.
func ProjectTopics(projectID, ownerID uuid.UUID) []string {
	return []string{TopicProjects, OwnerTopic(ownerID), ProjectTopic(projectID)}
}

// TopicKind classifies a topic name for subscription checks.
type TopicKind int

const (
	TopicInvalid TopicKind = iota
	TopicAllProjects
	TopicOwner
	TopicProject
	TopicWallet
)

// ParseTopic returns the kind of topic and, for scoped topics, the id it is
// scoped to.
func ParseTopic(topic string) (TopicKind, uuid.UUID) {
	switch {
	case topic == TopicProjects:
		return TopicAllProjects, uuid.Nil
	case strings.HasPrefix(topic, ownerTopicPrefix):
		if id, err := uuid.Parse(strings.TrimPrefix(topic, ownerTopicPrefix)); err == nil {
			return TopicOwner, id
		}
	case strings.HasPrefix(topic, walletTopicPrefix):
		if id, err := uuid.Parse(strings.TrimPrefix(topic, walletTopicPrefix)); err == nil {
			return TopicWallet, id
		}
	case strings.HasPrefix(topic, projectTopicPrefix):
		if id, err := uuid.Parse(strings.TrimPrefix(topic, projectTopicPrefix)); err == nil {
			return TopicProject, id
		}
	}
	return TopicInvalid, uuid.Nil
}
