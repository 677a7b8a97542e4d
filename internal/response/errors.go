package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden       ErrCode = "FORBIDDEN"
	ErrRoleNotAllowed  ErrCode = "ROLE_NOT_ALLOWED"
	ErrStudentOnly     ErrCode = "STUDENT_ACCESS_ONLY"
	ErrTeacherOnly     ErrCode = "TEACHER_ACCESS_ONLY"
	ErrNotExamOwner    ErrCode = "NOT_EXAM_OWNER"
	ErrWrongFiliere    ErrCode = "WRONG_FILIERE"
	ErrActionForbidden ErrCode = "ACTION_FORBIDDEN"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound            ErrCode = "NOT_FOUND"
	ErrExamNotFound        ErrCode = "EXAM_NOT_FOUND"
	ErrAttemptNotFound     ErrCode = "ATTEMPT_NOT_FOUND"
	ErrCertificateNotFound ErrCode = "CERTIFICATE_NOT_FOUND"
	ErrConflict            ErrCode = "CONFLICT"

	// ─── Exam-specific ─────────────────────────────────────────────────
	ErrExamNotPublished  ErrCode = "EXAM_NOT_PUBLISHED"
	ErrExamNotAvailable  ErrCode = "EXAM_NOT_AVAILABLE"
	ErrExamOver          ErrCode = "EXAM_OVER"
	ErrAlreadyPassed     ErrCode = "ALREADY_PASSED"
	ErrAttemptNotPassed  ErrCode = "ATTEMPT_NOT_PASSED"
	ErrCertificateFailed ErrCode = "CERTIFICATE_FAILED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "Jeton d'authentification requis."
	case ErrTokenInvalid:
		return "Jeton d'authentification invalide."
	case ErrTokenExpired:
		return "Jeton d'authentification expiré."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "Vous n'avez pas l'autorisation d'accéder à cette ressource."
	case ErrRoleNotAllowed:
		return "Votre rôle ne permet pas cette action."
	case ErrStudentOnly:
		return "Cette ressource est réservée aux étudiants."
	case ErrTeacherOnly:
		return "Cette ressource est réservée aux enseignants."
	case ErrNotExamOwner:
		return "Vous n'êtes pas l'auteur de cet examen."
	case ErrWrongFiliere:
		return "Vous n'avez pas accès à cet examen. Cet examen appartient à une autre filière."
	case ErrActionForbidden:
		return "Cette action n'est pas autorisée."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation échouée. Veuillez vérifier vos données."
	case ErrInvalidID:
		return "Format d'identifiant invalide."
	case ErrInvalidPayload:
		return "Corps de requête invalide."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Ressource introuvable."
	case ErrExamNotFound:
		return "Examen non trouvé."
	case ErrAttemptNotFound:
		return "Aucune soumission trouvée pour cet examen."
	case ErrCertificateNotFound:
		return "Certificat non trouvé."
	case ErrConflict:
		return "La soumission a été modifiée en parallèle. Veuillez réessayer."

	// ─── Exam-specific ─────────────────────────────────────────────────
	case ErrExamNotPublished:
		return "Cet examen n'est pas encore publié."
	case ErrExamNotAvailable:
		return "Cet examen n'est pas encore disponible."
	case ErrExamOver:
		return "Cet examen est terminé."
	case ErrAlreadyPassed:
		return "Vous avez déjà réussi cet examen."
	case ErrAttemptNotPassed:
		return "Aucun certificat ne peut être délivré avant la réussite de l'examen."
	case ErrCertificateFailed:
		return "La génération du certificat a échoué. Veuillez réessayer plus tard."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Trop de requêtes. Veuillez réessayer plus tard."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Erreur interne du serveur."
	default:
		return "Une erreur inattendue est survenue."
	}
}
