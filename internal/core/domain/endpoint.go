package domain

// WorkerEndpoint es la dirección de un worker tal y como aparece en la
// configuración (host:port). Solo decide el argumento con que se lanza.
type WorkerEndpoint string

func (e WorkerEndpoint) String() string {
	return string(e)
}
